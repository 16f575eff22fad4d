package keywordstore

import (
	"context"
	"sort"
	"sync"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

// MemoryStore keeps keyword trends in process memory for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[int64]map[string]float64
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[int64]map[string]float64)}
}

// Increment bumps the counter of every keyword for the user.
func (s *MemoryStore) Increment(_ context.Context, userID int64, keywords []string) error {
	if userID <= 0 || len(keywords) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	trend, ok := s.counts[userID]
	if !ok {
		trend = make(map[string]float64)
		s.counts[userID] = trend
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		trend[kw]++
	}
	return nil
}

// Top returns the user's most frequent keywords, ties ordered alphabetically.
func (s *MemoryStore) Top(_ context.Context, userID int64, limit int) ([]history.KeywordCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trend := s.counts[userID]
	items := make([]history.KeywordCount, 0, len(trend))
	for kw, count := range trend {
		items = append(items, history.KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Keyword < items[j].Keyword
		}
		return items[i].Count > items[j].Count
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Delete drops the user's trend.
func (s *MemoryStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.counts, userID)
	s.mu.Unlock()
	return nil
}

var _ history.KeywordStore = (*MemoryStore)(nil)
