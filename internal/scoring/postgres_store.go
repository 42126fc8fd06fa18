package scoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists risk rules and evaluation records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the scoring tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS risk_rules (
			id              TEXT PRIMARY KEY,
			condition_field TEXT NOT NULL,
			operator        TEXT NOT NULL,
			threshold       DOUBLE PRECISION NOT NULL,
			deduction       INTEGER NOT NULL CHECK (deduction >= 0),
			description     TEXT NOT NULL,
			is_active       BOOLEAN NOT NULL DEFAULT true,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_risk_rules_field_op
			ON risk_rules (condition_field, operator);

		CREATE TABLE IF NOT EXISTS evaluation_records (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			trust_score  INTEGER NOT NULL CHECK (trust_score >= 0 AND trust_score <= 100),
			risk_level   TEXT NOT NULL CHECK (risk_level IN ('LOW', 'MEDIUM', 'HIGH')),
			flags        JSONB NOT NULL DEFAULT '[]',
			input_data   JSONB NOT NULL DEFAULT '{}',
			evaluated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_evaluation_records_user
			ON evaluation_records (user_id, evaluated_at DESC);
	`)
	return err
}

func (s *PostgresStore) CreateRule(ctx context.Context, r *RiskRule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO risk_rules (id, condition_field, operator, threshold, deduction, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		r.ID, r.ConditionField, string(r.Operator), r.Threshold,
		r.Deduction, r.Description, r.IsActive, r.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrRuleExists
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRules(ctx context.Context) ([]RiskRule, error) {
	return s.queryRules(ctx, `
		SELECT id, condition_field, operator, threshold, deduction, description, is_active, created_at
		FROM risk_rules
		ORDER BY created_at ASC, id ASC
	`)
}

// ActiveRules returns active rules in ascending creation order. The ordering
// is part of the contract: flag order in results follows rule order here.
func (s *PostgresStore) ActiveRules(ctx context.Context) ([]RiskRule, error) {
	return s.queryRules(ctx, `
		SELECT id, condition_field, operator, threshold, deduction, description, is_active, created_at
		FROM risk_rules
		WHERE is_active = true
		ORDER BY created_at ASC, id ASC
	`)
}

func (s *PostgresStore) queryRules(ctx context.Context, query string) ([]RiskRule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []RiskRule
	for rows.Next() {
		var r RiskRule
		var op string
		if err := rows.Scan(&r.ID, &r.ConditionField, &op, &r.Threshold,
			&r.Deduction, &r.Description, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Operator = Operator(op)
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Record(ctx context.Context, rec *EvaluationRecord) error {
	flagsJSON, err := json.Marshal(rec.Flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}
	inputJSON, err := json.Marshal(rec.InputData)
	if err != nil {
		return fmt.Errorf("failed to marshal input data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluation_records (id, user_id, trust_score, risk_level, flags, input_data, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rec.ID, rec.UserID, rec.TrustScore, string(rec.RiskLevel),
		flagsJSON, inputJSON, rec.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]*EvaluationRecord, error) {
	query := `
		SELECT id, user_id, trust_score, risk_level, flags, input_data, evaluated_at
		FROM evaluation_records
		WHERE user_id = $1
		ORDER BY evaluated_at DESC, id DESC
	`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT $2`, userID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluation records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*EvaluationRecord{}
	for rows.Next() {
		var rec EvaluationRecord
		var level string
		var flagsJSON, inputJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.TrustScore, &level,
			&flagsJSON, &inputJSON, &rec.EvaluatedAt); err != nil {
			return nil, err
		}
		rec.RiskLevel = RiskLevel(level)
		rec.Flags = []string{}
		if err := json.Unmarshal(flagsJSON, &rec.Flags); err != nil {
			return nil, fmt.Errorf("corrupt flags for record %s: %w", rec.ID, err)
		}
		rec.InputData = Input{}
		if err := json.Unmarshal(inputJSON, &rec.InputData); err != nil {
			return nil, fmt.Errorf("corrupt input data for record %s: %w", rec.ID, err)
		}
		result = append(result, &rec)
	}
	return result, rows.Err()
}

var (
	_ RuleStore   = (*PostgresStore)(nil)
	_ RecordStore = (*PostgresStore)(nil)
)
