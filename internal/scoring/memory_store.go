package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/mbd888/trustlens/internal/idgen"
)

// MemoryStore is an in-memory implementation of RuleStore and RecordStore
// for demo mode and tests. Rules keep insertion order, which doubles as
// creation order.
type MemoryStore struct {
	mu      sync.RWMutex
	rules   []RiskRule
	records map[string][]*EvaluationRecord // userID → records, oldest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]*EvaluationRecord),
	}
}

func (s *MemoryStore) CreateRule(_ context.Context, r *RiskRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rules {
		if existing.ConditionField == r.ConditionField && existing.Operator == r.Operator {
			return ErrRuleExists
		}
	}

	if r.ID == "" {
		r.ID = idgen.WithPrefix("rule_")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.rules = append(s.rules, *r)
	return nil
}

func (s *MemoryStore) ListRules(_ context.Context) ([]RiskRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RiskRule, len(s.rules))
	copy(result, s.rules)
	return result, nil
}

func (s *MemoryStore) ActiveRules(_ context.Context) ([]RiskRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RiskRule, 0, len(s.rules))
	for _, r := range s.rules {
		if r.IsActive {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *MemoryStore) Record(_ context.Context, rec *EvaluationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.Flags = append([]string(nil), rec.Flags...)
	cp.InputData = rec.InputData.Clone()
	s.records[rec.UserID] = append(s.records[rec.UserID], &cp)
	return nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string, limit int) ([]*EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.records[userID]
	if len(all) == 0 {
		return []*EvaluationRecord{}, nil
	}

	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}

	// Most recent first
	result := make([]*EvaluationRecord, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		cp := *all[i]
		cp.Flags = append([]string(nil), all[i].Flags...)
		cp.InputData = all[i].InputData.Clone()
		result = append(result, &cp)
	}
	return result, nil
}

var (
	_ RuleStore   = (*MemoryStore)(nil)
	_ RecordStore = (*MemoryStore)(nil)
)
