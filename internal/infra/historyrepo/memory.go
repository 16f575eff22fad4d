package historyrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

// MemoryRepository keeps history records in memory. Useful for tests and local dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int64][]history.Record
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int64][]history.Record)}
}

// Append stores the record in arrival order.
func (r *MemoryRepository) Append(_ context.Context, rec history.Record) (history.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Keywords = append([]string(nil), rec.Keywords...)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.UserID] = append(r.records[rec.UserID], rec)
	return rec, nil
}

// ListRecent returns the newest records first.
func (r *MemoryRepository) ListRecent(_ context.Context, userID int64, limit int) ([]history.Record, error) {
	r.mu.RLock()
	stored := r.records[userID]
	out := make([]history.Record, len(stored))
	copy(out, stored)
	r.mu.RUnlock()

	// reverse arrival order first so equal timestamps list the latest write first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteByUser removes every record owned by userID.
func (r *MemoryRepository) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.records[userID]))
	delete(r.records, userID)
	return n, nil
}

var _ history.Repository = (*MemoryRepository)(nil)
