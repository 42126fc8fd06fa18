package scoring

// DefaultRules is the baseline rule set seeded into new deployments. Each
// rule targets one of the standard behavioral signals; together they cover
// the common account-takeover and fraud-burst patterns.
func DefaultRules() []RiskRule {
	return []RiskRule{
		{
			ConditionField: "account_age_days",
			Operator:       OpLessThan,
			Threshold:      7,
			Deduction:      20,
			Description:    "New account",
			IsActive:       true,
		},
		{
			ConditionField: "failed_logins",
			Operator:       OpGreaterThan,
			Threshold:      3,
			Deduction:      15,
			Description:    "High failed login attempts",
			IsActive:       true,
		},
		{
			ConditionField: "transactions_last_24h",
			Operator:       OpGreaterThan,
			Threshold:      20,
			Deduction:      20,
			Description:    "Unusual transaction volume",
			IsActive:       true,
		},
		{
			ConditionField: "ip_changes",
			Operator:       OpGreaterThan,
			Threshold:      2,
			Deduction:      10,
			Description:    "Suspicious IP changes",
			IsActive:       true,
		},
		{
			ConditionField: "avg_transaction_amount",
			Operator:       OpGreaterThan,
			Threshold:      5000,
			Deduction:      15,
			Description:    "High average transaction amount",
			IsActive:       true,
		},
	}
}
