package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

func TestPairEdgeStore_InsertAndEdgesFor(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPairEdgeStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.PairEdge{
		Pair: "0xpair2", Token0: "0xusdc", Token1: "0xweth", Stable: false,
	}))
	require.NoError(t, store.Insert(ctx, &domain.PairEdge{
		Pair: "0xpair1", Token0: "0xdai", Token1: "0xusdc", Stable: true,
	}))
	require.NoError(t, store.Insert(ctx, &domain.PairEdge{
		Pair: "0xpair3", Token0: "0xweth", Token1: "0xwbtc", Stable: false,
	}))

	// Matches both token0 and token1 sides, ordered by pair.
	edges, err := store.EdgesFor(ctx, "0xusdc")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "0xpair1", edges[0].Pair)
	assert.True(t, edges[0].Stable)
	assert.Equal(t, "0xpair2", edges[1].Pair)
	assert.False(t, edges[1].Stable)

	edges, err = store.EdgesFor(ctx, "0xunknown")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestPairEdgeStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPairEdgeStore(pool)

	require.NoError(t, store.Insert(ctx, &domain.PairEdge{
		Pair: "0xpair1", Token0: "0xdai", Token1: "0xusdc", Stable: true,
	}))

	err := store.Insert(ctx, &domain.PairEdge{
		Pair: "0xpair1", Token0: "0xdai", Token1: "0xusdc", Stable: true,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
