package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	if _, err := SeedDefaultRules(context.Background(), store); err != nil {
		t.Fatalf("seed default rules: %v", err)
	}
	return NewService(store, store), store
}

func TestEvaluateUserPersistsRecord(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	input := signals(5, 6, 30, 4, 7000)
	result, err := svc.EvaluateUser(ctx, input)
	if err != nil {
		t.Fatalf("EvaluateUser: %v", err)
	}
	if result.TrustScore != 20 || result.RiskLevel != RiskHigh {
		t.Errorf("result = %+v, want score 20 HIGH", result)
	}

	records, err := store.ListByUser(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if !strings.HasPrefix(rec.ID, "eval_") {
		t.Errorf("record ID = %q, want eval_ prefix", rec.ID)
	}
	if rec.UserID != "user-1" {
		t.Errorf("record user = %q, want user-1", rec.UserID)
	}
	if rec.TrustScore != result.TrustScore || rec.RiskLevel != result.RiskLevel {
		t.Errorf("record outcome %d/%s differs from result %d/%s",
			rec.TrustScore, rec.RiskLevel, result.TrustScore, result.RiskLevel)
	}
	if rec.EvaluatedAt.IsZero() {
		t.Error("record has no timestamp")
	}
	if len(rec.InputData) != len(input) {
		t.Errorf("input data has %d fields, want %d", len(rec.InputData), len(input))
	}
}

func TestHistoryMostRecentFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// First a risky evaluation, then a clean one
	if _, err := svc.EvaluateUser(ctx, signals(5, 6, 30, 4, 7000)); err != nil {
		t.Fatalf("EvaluateUser: %v", err)
	}
	if _, err := svc.EvaluateUser(ctx, signals(365, 0, 2, 0, 100)); err != nil {
		t.Fatalf("EvaluateUser: %v", err)
	}

	records, err := svc.History(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].TrustScore != 100 || records[1].TrustScore != 20 {
		t.Errorf("order wrong: scores %d, %d; want 100 then 20",
			records[0].TrustScore, records[1].TrustScore)
	}
}

func TestHistoryUnknownUserIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	records, err := svc.History(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if records == nil {
		t.Fatal("History returned nil, want empty slice")
	}
	if len(records) != 0 {
		t.Errorf("got %d records for unknown user, want 0", len(records))
	}
}

func TestHistoryLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.EvaluateUser(ctx, signals(365, 0, 2, 0, 100)); err != nil {
			t.Fatalf("EvaluateUser: %v", err)
		}
	}

	records, err := svc.History(ctx, "user-1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2 with limit", len(records))
	}
}

func TestSeedDefaultRulesIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := SeedDefaultRules(ctx, store)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if created != 5 {
		t.Errorf("first seed created %d rules, want 5", created)
	}

	created, err = SeedDefaultRules(ctx, store)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if created != 0 {
		t.Errorf("second seed created %d rules, want 0", created)
	}

	rules, err := store.ListRules(ctx)
	if err != nil {
		t.Fatalf("ListRules: %v", err)
	}
	if len(rules) != 5 {
		t.Errorf("store has %d rules, want 5", len(rules))
	}
}

// failingRecordStore rejects every write.
type failingRecordStore struct{}

func (failingRecordStore) Record(context.Context, *EvaluationRecord) error {
	return errors.New("disk on fire")
}

func (failingRecordStore) ListByUser(context.Context, string, int) ([]*EvaluationRecord, error) {
	return nil, errors.New("disk on fire")
}

func TestEvaluateUserFailsWhenRecordWriteFails(t *testing.T) {
	store := NewMemoryStore()
	if _, err := SeedDefaultRules(context.Background(), store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewService(store, failingRecordStore{})

	_, err := svc.EvaluateUser(context.Background(), signals(365, 0, 2, 0, 100))
	if err == nil {
		t.Fatal("expected error when record store fails")
	}
}
