package historyqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

const defaultQueueKey = "history:records"

// ValkeyQueue persists records in a Valkey list and delivers them to the handler.
// BRPOP removes an entry before the handler runs, so delivery is at-most-once.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	logger      *slog.Logger
	pollTimeout time.Duration

	mu      sync.Mutex
	handler history.Handler
	stop    chan struct{}
	done    chan struct{}
	started bool
	closed  bool
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		logger:      logger.With("component", "historyqueue.valkey"),
		pollTimeout: 2 * time.Second,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// SetHandler starts the worker loop that pops records and invokes the handler.
func (q *ValkeyQueue) SetHandler(handler history.Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = handler
	if handler == nil || q.started || q.closed {
		return
	}
	q.started = true
	go q.consume()
}

// Enqueue pushes a record onto the list.
func (q *ValkeyQueue) Enqueue(ctx context.Context, rec history.Record) error {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return ErrClosed
	}
	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close stops the worker loop. Records still in the list stay there for the next consumer.
func (q *ValkeyQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.stop)
	q.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ValkeyQueue) consume() {
	defer close(q.done)
	ctx := context.Background()
	for {
		select {
		case <-q.stop:
			return
		default:
		}
		resp := q.client.Do(ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
		values, err := resp.ToArray()
		if err != nil {
			if !valkey.IsValkeyNil(err) {
				q.logger.Warn("valkey queue pop failed", "error", err)
				q.backoff()
			}
			continue
		}
		if len(values) < 2 {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		var rec history.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		q.mu.Lock()
		handler := q.handler
		q.mu.Unlock()
		if handler != nil {
			_ = handler(ctx, rec)
		}
	}
}

func (q *ValkeyQueue) backoff() {
	select {
	case <-q.stop:
	case <-time.After(q.pollTimeout):
	}
}

var _ history.Queue = (*ValkeyQueue)(nil)
