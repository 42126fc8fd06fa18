// Package scoring implements rule-driven trust scoring for user behavior.
//
// Every evaluation checks a snapshot of behavioral signals (account age,
// failed logins, transaction volume, IP changes, average transaction amount)
// against the set of active risk rules. Each rule that fires deducts points
// from a base score of 100; the final score is clamped to [0, 100] and
// classified into a LOW/MEDIUM/HIGH risk level. Every evaluation is recorded
// for audit and history queries.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRuleExists is returned when a rule for the same condition field and
// operator is already stored.
var ErrRuleExists = errors.New("scoring: rule already exists for this field and operator")

// Operator is a comparison operator stored as a short code on a rule.
//
// Codes outside the known set are skipped at evaluation time rather than
// rejected, so rule sets written by newer deployments stay loadable.
type Operator string

const (
	OpLessThan    Operator = "lt"
	OpGreaterThan Operator = "gt"
	OpEqualTo     Operator = "eq"
)

// Compare applies the operator to value and threshold. The second return is
// false for unknown operators.
//
// OpEqualTo is an exact float64 equality test. That is deliberate: rules with
// non-integer thresholds are fragile under eq, and operators should prefer
// lt/gt, but the stored behavior is exact comparison.
func (op Operator) Compare(value, threshold float64) (bool, bool) {
	switch op {
	case OpLessThan:
		return value < threshold, true
	case OpGreaterThan:
		return value > threshold, true
	case OpEqualTo:
		return value == threshold, true
	default:
		return false, false
	}
}

// RiskLevel is the coarse classification of a trust score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskRule is a stored predicate: when the named input field satisfies the
// comparison, Deduction points are removed from the score and Description is
// surfaced as a flag.
type RiskRule struct {
	ID             string    `json:"id"`
	ConditionField string    `json:"condition_field"`
	Operator       Operator  `json:"operator"`
	Threshold      float64   `json:"threshold"`
	Deduction      int       `json:"deduction"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidateRule checks that a rule is well-formed before it is stored.
// Unknown operators are legal at evaluation time (skipped), but creating one
// through the API is almost certainly a mistake, so it is rejected here.
func ValidateRule(r *RiskRule) error {
	if r.ConditionField == "" {
		return fmt.Errorf("condition_field is required")
	}
	if _, known := r.Operator.Compare(0, 0); !known {
		return fmt.Errorf("operator must be one of lt, gt, eq (got %q)", r.Operator)
	}
	if r.Deduction < 0 {
		return fmt.Errorf("deduction must be non-negative (got %d)", r.Deduction)
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// Input is the flat field → value mapping one evaluation runs against.
// Values are looked up by a rule's condition field and coerced to float64;
// fields that are absent or non-numeric simply never fire a rule.
type Input map[string]any

// UserID returns the user_id field as a string, or "" when absent.
func (in Input) UserID() string {
	if id, ok := in["user_id"].(string); ok {
		return id
	}
	return ""
}

// Clone returns a shallow copy of the input. Values are JSON scalars in
// practice, so a shallow copy is enough to decouple the stored record from
// the caller's map.
func (in Input) Clone() Input {
	cp := make(Input, len(in))
	for k, v := range in {
		cp[k] = v
	}
	return cp
}

// Result is the engine's verdict on one input snapshot.
type Result struct {
	TrustScore int       `json:"trust_score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Flags      []string  `json:"flags"`
}

// EvaluationRecord is the durable audit entry for one evaluation: the inputs,
// the outputs, and a server-assigned timestamp. Records are append-only.
type EvaluationRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TrustScore  int       `json:"trust_score"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Flags       []string  `json:"flags"`
	InputData   Input     `json:"input_data"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// RuleStore supplies the rule set. ActiveRules must return only active rules
// in ascending creation order so flag ordering is reproducible across calls.
type RuleStore interface {
	ActiveRules(ctx context.Context) ([]RiskRule, error)
	ListRules(ctx context.Context) ([]RiskRule, error)
	CreateRule(ctx context.Context, r *RiskRule) error
}

// RecordStore persists evaluation records for the audit trail.
type RecordStore interface {
	Record(ctx context.Context, rec *EvaluationRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*EvaluationRecord, error)
}
