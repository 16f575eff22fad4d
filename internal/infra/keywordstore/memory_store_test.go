package keywordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/pdf-summarizer/internal/domain/history"
)

func TestMemoryStoreTopOrdersByCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Increment(ctx, 1, []string{"contrat", "paiement", "délai"}))
	require.NoError(t, store.Increment(ctx, 1, []string{"paiement", "délai"}))
	require.NoError(t, store.Increment(ctx, 1, []string{"paiement", ""}))
	require.NoError(t, store.Increment(ctx, 2, []string{"autre"}))

	top, err := store.Top(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []history.KeywordCount{
		{Keyword: "paiement", Count: 3},
		{Keyword: "délai", Count: 2},
	}, top)

	all, err := store.Top(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestMemoryStoreDeleteIsPerUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Increment(ctx, 1, []string{"contrat"}))
	require.NoError(t, store.Increment(ctx, 2, []string{"facture"}))
	require.NoError(t, store.Delete(ctx, 1))

	top, err := store.Top(ctx, 1, 10)
	require.NoError(t, err)
	require.Empty(t, top)

	top, err = store.Top(ctx, 2, 10)
	require.NoError(t, err)
	require.Equal(t, []history.KeywordCount{{Keyword: "facture", Count: 1}}, top)
}

func TestMemoryStoreIgnoresAnonymous(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.Increment(context.Background(), 0, []string{"x"}))
	top, err := store.Top(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Empty(t, top)
}
