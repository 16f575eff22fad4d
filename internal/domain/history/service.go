package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
	"github.com/yanqian/pdf-summarizer/pkg/util"
)

// CodePersistence marks history write failures. They are logged, never returned to request handlers.
const CodePersistence = "persistence_error"

// Service records and lists user activity.
type Service interface {
	// Record schedules an append and returns immediately. Delivery is at-most-once.
	Record(ctx context.Context, rec Record)
	Recent(ctx context.Context, userID int64, limit int) ([]Record, error)
	TopKeywords(ctx context.Context, userID int64, limit int) ([]KeywordCount, error)
	Purge(ctx context.Context, userID int64) error
	// Close stops accepting work and waits for in-flight writes.
	Close(ctx context.Context) error
}

// Config tunes the asynchronous writer.
type Config struct {
	WriteTimeout time.Duration
	ErrorBuffer  int
}

type writeFailure struct {
	record Record
	err    error
}

type service struct {
	cfg      Config
	repo     Repository
	keywords KeywordStore
	queue    Queue
	observer Observer
	logger   *slog.Logger

	errs      chan writeFailure
	drained   chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewService wires the recorder. A nil observer disables write metrics.
func NewService(cfg Config, repo Repository, keywords KeywordStore, queue Queue, observer Observer, logger *slog.Logger) Service {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.ErrorBuffer <= 0 {
		cfg.ErrorBuffer = 64
	}
	s := &service{
		cfg:      cfg,
		repo:     repo,
		keywords: keywords,
		queue:    queue,
		observer: observer,
		logger:   logger.With("component", "history.service"),
		errs:     make(chan writeFailure, cfg.ErrorBuffer),
		drained:  make(chan struct{}),
	}
	queue.SetHandler(s.persist)
	go s.reportFailures()
	return s
}

func (s *service) Record(ctx context.Context, rec Record) {
	if rec.UserID <= 0 || !rec.Action.Valid() {
		s.logger.Warn("history record rejected", "userId", rec.UserID, "action", rec.Action)
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = util.NowUTC()
	}
	// the write outlives the request that triggered it
	if err := s.queue.Enqueue(context.WithoutCancel(ctx), rec); err != nil {
		s.fail(rec, apperrors.Wrap(CodePersistence, "enqueue history record", err))
	}
}

func (s *service) persist(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()

	if _, err := s.repo.Append(ctx, rec); err != nil {
		wrapped := apperrors.Wrap(CodePersistence, "append history record", err)
		s.fail(rec, wrapped)
		return wrapped
	}
	s.observe(rec.Action, true)

	if rec.Action.Summarization() && len(rec.Keywords) > 0 && s.keywords != nil {
		if err := s.keywords.Increment(ctx, rec.UserID, rec.Keywords); err != nil {
			s.logger.Warn("keyword trend update failed", "userId", rec.UserID, "error", err)
		}
	}
	return nil
}

func (s *service) fail(rec Record, err error) {
	s.observe(rec.Action, false)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.logger.Error("history write failed", "userId", rec.UserID, "action", rec.Action, "error", err)
		return
	}
	select {
	case s.errs <- writeFailure{record: rec, err: err}:
	default:
		s.logger.Error("history write failed", "userId", rec.UserID, "action", rec.Action, "error", err, "dropped_report", true)
	}
}

func (s *service) reportFailures() {
	defer close(s.drained)
	for failure := range s.errs {
		s.logger.Error("history write failed", "userId", failure.record.UserID, "action", failure.record.Action, "recordId", failure.record.ID, "error", failure.err)
	}
}

func (s *service) observe(action Action, ok bool) {
	if s.observer != nil {
		s.observer.ObserveHistoryWrite(string(action), ok)
	}
}

func (s *service) Recent(ctx context.Context, userID int64, limit int) ([]Record, error) {
	if userID <= 0 {
		return nil, apperrors.Wrap("invalid_input", "user id is required", nil)
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	records, err := s.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load history", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *service) TopKeywords(ctx context.Context, userID int64, limit int) ([]KeywordCount, error) {
	if userID <= 0 {
		return nil, apperrors.Wrap("invalid_input", "user id is required", nil)
	}
	if limit <= 0 {
		limit = 10
	}
	if s.keywords == nil {
		return []KeywordCount{}, nil
	}
	items, err := s.keywords.Top(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load keyword trends", err)
	}
	if items == nil {
		items = []KeywordCount{}
	}
	return items, nil
}

func (s *service) Purge(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperrors.Wrap("invalid_input", "user id is required", nil)
	}
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return apperrors.Wrap("history_error", "failed to delete history", err)
	}
	if s.keywords != nil {
		if err := s.keywords.Delete(ctx, userID); err != nil {
			return apperrors.Wrap("history_error", "failed to delete keyword trends", err)
		}
	}
	s.logger.Info("history purged", "userId", userID, "records", deleted)
	return nil
}

func (s *service) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = s.queue.Close(ctx)
		s.mu.Lock()
		s.closed = true
		close(s.errs)
		s.mu.Unlock()
		select {
		case <-s.drained:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
	})
	return err
}
