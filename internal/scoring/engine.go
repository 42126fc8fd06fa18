package scoring

import (
	"encoding/json"
	"strconv"
)

// BaseScore is the score every evaluation starts from before deductions.
const BaseScore = 100

// Evaluate runs one input snapshot against a rule set and returns the trust
// score, risk level, and the descriptions of every rule that fired, in rule
// order.
//
// Pure in-memory computation: no I/O, no mutation of input or rules, safe to
// call concurrently. Rules degrade individually — a rule whose field is
// missing from the input, whose operator is unknown, or whose field value is
// not coercible to a number contributes nothing and never blocks the rules
// after it. Deductions accumulate across all firing rules (duplicates
// included) and the score is clamped to [0, 100] once at the end.
func Evaluate(input Input, rules []RiskRule) Result {
	score := BaseScore
	flags := []string{}

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		raw, ok := input[rule.ConditionField]
		if !ok {
			continue // missing field, rule never fires
		}

		value, ok := toFloat(raw)
		if !ok {
			continue // non-numeric value, skip gracefully
		}

		fired, known := rule.Operator.Compare(value, rule.Threshold)
		if !known {
			continue // unknown operator, skip gracefully
		}

		if fired {
			score -= rule.Deduction
			flags = append(flags, rule.Description)
		}
	}

	// Clamp once, after all deductions
	if score < 0 {
		score = 0
	}
	if score > BaseScore {
		score = BaseScore
	}

	return Result{
		TrustScore: score,
		RiskLevel:  Classify(score),
		Flags:      flags,
	}
}

// Classify maps a trust score onto a risk level. Band lower bounds are
// inclusive: exactly 80 is LOW, exactly 50 is MEDIUM.
func Classify(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskLow
	case score >= 50:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// toFloat coerces a decoded JSON value to float64. Numeric strings count as
// numeric; everything else does not.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
