package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/mbd888/trustlens/internal/idgen"
	"github.com/mbd888/trustlens/internal/logging"
	"github.com/mbd888/trustlens/internal/metrics"
	"github.com/mbd888/trustlens/internal/traces"
)

// MaxHistoryLimit caps how many records one history query returns.
const MaxHistoryLimit = 500

// Service orchestrates evaluations: fetch the active rule snapshot, run the
// engine, persist the audit record, and return the result. The engine itself
// stays pure; everything with a side effect lives here.
type Service struct {
	rules   RuleStore
	records RecordStore
}

// NewService creates a scoring service over the given stores.
func NewService(rules RuleStore, records RecordStore) *Service {
	return &Service{rules: rules, records: records}
}

// EvaluateUser evaluates one validated input snapshot and records the
// outcome. Exactly one record is written per successful call; a store
// failure fails the whole call and no result is returned.
func (s *Service) EvaluateUser(ctx context.Context, input Input) (Result, error) {
	ctx, span := traces.StartSpan(ctx, "scoring.evaluate", traces.UserID(input.UserID()))
	defer span.End()

	rules, err := s.rules.ActiveRules(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load active rules: %w", err)
	}

	result := Evaluate(input, rules)
	span.SetAttributes(traces.TrustScore(result.TrustScore), traces.RiskLevel(string(result.RiskLevel)))

	rec := &EvaluationRecord{
		ID:          idgen.WithPrefix("eval_"),
		UserID:      input.UserID(),
		TrustScore:  result.TrustScore,
		RiskLevel:   result.RiskLevel,
		Flags:       result.Flags,
		InputData:   input.Clone(),
		EvaluatedAt: time.Now().UTC(),
	}
	if err := s.records.Record(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("failed to record evaluation: %w", err)
	}

	metrics.EvaluationsTotal.WithLabelValues(string(result.RiskLevel)).Inc()
	metrics.TrustScoreDistribution.Observe(float64(result.TrustScore))

	logging.L(ctx).Info("user evaluated",
		"user_id", rec.UserID,
		"trust_score", result.TrustScore,
		"risk_level", result.RiskLevel,
		"flags", len(result.Flags),
		"rules", len(rules),
	)

	return result, nil
}

// History returns a user's evaluation records, most recent first. Unknown
// users get an empty list, never an error. limit <= 0 means all records, up
// to MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*EvaluationRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.records.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if records == nil {
		records = []*EvaluationRecord{}
	}
	return records, nil
}

// SeedDefaultRules inserts the default rule set, skipping rules that already
// exist for the same field and operator. Returns how many were created.
func SeedDefaultRules(ctx context.Context, store RuleStore) (int, error) {
	created := 0
	for _, r := range DefaultRules() {
		rule := r
		rule.ID = idgen.WithPrefix("rule_")
		rule.CreatedAt = time.Now().UTC()
		err := store.CreateRule(ctx, &rule)
		if err == ErrRuleExists {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to seed rule %q: %w", rule.Description, err)
		}
		created++
	}
	return created, nil
}
