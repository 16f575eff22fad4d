package historyqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

// ErrClosed is returned when enqueueing after Close.
var ErrClosed = errors.New("history queue closed")

// ImmediateQueue runs the handler in a goroutine per record.
type ImmediateQueue struct {
	mu       sync.RWMutex
	handler  history.Handler
	closed   bool
	inflight sync.WaitGroup
}

// NewImmediateQueue constructs the queue.
func NewImmediateQueue() *ImmediateQueue {
	return &ImmediateQueue{}
}

// SetHandler replaces the handler used for queued records.
func (q *ImmediateQueue) SetHandler(handler history.Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
}

// Enqueue invokes the handler asynchronously.
func (q *ImmediateQueue) Enqueue(ctx context.Context, rec history.Record) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	if q.handler == nil {
		return nil
	}
	handler := q.handler
	q.inflight.Add(1)
	go func() {
		defer q.inflight.Done()
		// failures are reported by the handler itself
		_ = handler(ctx, rec)
	}()
	return nil
}

// Close rejects new records and waits for running handlers.
func (q *ImmediateQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ history.Queue = (*ImmediateQueue)(nil)
