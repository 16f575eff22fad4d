package history_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
	"github.com/yanqian/pdf-summarizer/internal/infra/historyqueue"
	"github.com/yanqian/pdf-summarizer/internal/infra/historyrepo"
	"github.com/yanqian/pdf-summarizer/internal/infra/keywordstore"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

type stubRepository struct {
	appendFn func(ctx context.Context, rec history.Record) (history.Record, error)
}

func (s *stubRepository) Append(ctx context.Context, rec history.Record) (history.Record, error) {
	return s.appendFn(ctx, rec)
}

func (s *stubRepository) ListRecent(context.Context, int64, int) ([]history.Record, error) {
	return nil, errors.New("unavailable")
}

func (s *stubRepository) DeleteByUser(context.Context, int64) (int64, error) {
	return 0, errors.New("unavailable")
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) ObserveHistoryWrite(_ string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.ok++
		return
	}
	o.failed++
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordPersistsAndFeedsKeywordTrend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := historyrepo.NewMemoryRepository()
	keywords := keywordstore.NewMemoryStore()
	observer := &countingObserver{}
	svc := history.NewService(history.Config{}, repo, keywords, historyqueue.NewImmediateQueue(), observer, newLogger())

	svc.Record(ctx, history.Record{UserID: 7, Action: history.ActionTextSummarized, SummaryText: "Résumé.", Keywords: []string{"contrat", "paiement"}})
	svc.Record(ctx, history.Record{UserID: 7, Action: history.ActionLogin})
	require.NoError(t, svc.Close(ctx))

	records, err := svc.Recent(ctx, 7, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.NotEmpty(t, rec.ID)
		require.False(t, rec.CreatedAt.IsZero())
	}

	top, err := svc.TopKeywords(ctx, 7, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, 2, observer.ok)
	require.Zero(t, observer.failed)
}

func TestRecordRejectsAnonymousAndUnknownActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := historyrepo.NewMemoryRepository()
	svc := history.NewService(history.Config{}, repo, nil, historyqueue.NewImmediateQueue(), nil, newLogger())

	svc.Record(ctx, history.Record{UserID: 0, Action: history.ActionLogin})
	svc.Record(ctx, history.Record{UserID: 3, Action: history.Action("deleted")})
	require.NoError(t, svc.Close(ctx))

	records, err := repo.ListRecent(ctx, 3, 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRecordFailureIsNotReturned(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	var mu sync.Mutex
	repo := &stubRepository{appendFn: func(ctx context.Context, rec history.Record) (history.Record, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		// the write must not inherit the request cancellation
		if err := ctx.Err(); err != nil {
			return history.Record{}, err
		}
		return history.Record{}, errors.New("disk full")
	}}
	observer := &countingObserver{}
	svc := history.NewService(history.Config{WriteTimeout: time.Second}, repo, nil, historyqueue.NewImmediateQueue(), observer, newLogger())

	svc.Record(ctx, history.Record{UserID: 1, Action: history.ActionPDFSummarized})
	cancel()
	require.NoError(t, svc.Close(context.Background()))

	mu.Lock()
	require.Equal(t, 1, calls)
	mu.Unlock()
	require.Equal(t, 1, observer.failed)

	_, err := svc.Recent(context.Background(), 1, 10)
	require.True(t, apperrors.IsCode(err, "history_error"))
}

func TestRecordAfterCloseDoesNotPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := history.NewService(history.Config{}, historyrepo.NewMemoryRepository(), nil, historyqueue.NewImmediateQueue(), nil, newLogger())
	require.NoError(t, svc.Close(ctx))
	require.NoError(t, svc.Close(ctx))
	require.NotPanics(t, func() {
		svc.Record(ctx, history.Record{UserID: 1, Action: history.ActionLogin})
	})
}

func TestRecentCapsLimitAndValidatesUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := historyrepo.NewMemoryRepository()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < history.DefaultListLimit+5; i++ {
		_, err := repo.Append(ctx, history.Record{UserID: 9, Action: history.ActionLogin, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	svc := history.NewService(history.Config{}, repo, nil, historyqueue.NewImmediateQueue(), nil, newLogger())
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	records, err := svc.Recent(ctx, 9, 500)
	require.NoError(t, err)
	require.Len(t, records, history.DefaultListLimit)
	require.True(t, records[0].CreatedAt.After(records[1].CreatedAt))

	_, err = svc.Recent(ctx, 0, 10)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestPurgeRemovesHistoryAndKeywords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := historyrepo.NewMemoryRepository()
	keywords := keywordstore.NewMemoryStore()
	svc := history.NewService(history.Config{}, repo, keywords, historyqueue.NewImmediateQueue(), nil, newLogger())
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	_, err := repo.Append(ctx, history.Record{UserID: 4, Action: history.ActionRegister})
	require.NoError(t, err)
	require.NoError(t, keywords.Increment(ctx, 4, []string{"budget"}))
	_, err = repo.Append(ctx, history.Record{UserID: 5, Action: history.ActionRegister})
	require.NoError(t, err)

	require.NoError(t, svc.Purge(ctx, 4))

	records, err := svc.Recent(ctx, 4, 10)
	require.NoError(t, err)
	require.Empty(t, records)
	top, err := svc.TopKeywords(ctx, 4, 10)
	require.NoError(t, err)
	require.Empty(t, top)

	others, err := svc.Recent(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, others, 1)
}
