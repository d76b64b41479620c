package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
)

func TestVolumeSnapshotStore_InsertAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVolumeSnapshotStore(conn)
	ctx := context.Background()

	snap := &domain.VolumeSnapshot{
		Account:       "0xaccount1",
		Timestamp:     1700000000,
		AsTrader:      num.MustUintFromString("115792089237316195423570985008687907853269984665640564039457"),
		AsReferrer:    num.NewUint(500),
		AsGrandparent: num.UintZero(),
	}
	require.NoError(t, store.Insert(ctx, snap))

	got, err := store.GetByAccount(ctx, "0xaccount1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "0xaccount1", got[0].Account)
	assert.Equal(t, int64(1700000000), got[0].Timestamp)
	assert.True(t, snap.AsTrader.EQ(got[0].AsTrader), "round trip lost precision: %s", got[0].AsTrader)
	assert.True(t, num.NewUint(500).EQ(got[0].AsReferrer))
	assert.True(t, got[0].AsGrandparent.IsZero())
}

func TestVolumeSnapshotStore_GetByAccountOrdering(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVolumeSnapshotStore(conn)
	ctx := context.Background()

	for _, ts := range []int64{1700000300, 1700000100, 1700000200} {
		require.NoError(t, store.Insert(ctx, &domain.VolumeSnapshot{
			Account:       "0xaccount1",
			Timestamp:     ts,
			AsTrader:      num.NewUint(uint64(ts)),
			AsReferrer:    num.UintZero(),
			AsGrandparent: num.UintZero(),
		}))
	}
	require.NoError(t, store.Insert(ctx, &domain.VolumeSnapshot{
		Account:       "0xother",
		Timestamp:     1700000050,
		AsTrader:      num.NewUint(1),
		AsReferrer:    num.UintZero(),
		AsGrandparent: num.UintZero(),
	}))

	got, err := store.GetByAccount(ctx, "0xaccount1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1700000100), got[0].Timestamp)
	assert.Equal(t, int64(1700000200), got[1].Timestamp)
	assert.Equal(t, int64(1700000300), got[2].Timestamp)
}

func TestVolumeSnapshotStore_RewriteSameTimestamp(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVolumeSnapshotStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.VolumeSnapshot{
		Account:       "0xaccount1",
		Timestamp:     1700000000,
		AsTrader:      num.NewUint(100),
		AsReferrer:    num.UintZero(),
		AsGrandparent: num.UintZero(),
	}))
	require.NoError(t, store.Insert(ctx, &domain.VolumeSnapshot{
		Account:       "0xaccount1",
		Timestamp:     1700000000,
		AsTrader:      num.NewUint(250),
		AsReferrer:    num.UintZero(),
		AsGrandparent: num.UintZero(),
	}))

	// FINAL collapses the two versions; the later insert wins.
	got, err := store.GetByAccount(ctx, "0xaccount1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, num.NewUint(250).EQ(got[0].AsTrader))
}

func TestVolumeSnapshotStore_GetByAccountEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVolumeSnapshotStore(conn)
	ctx := context.Background()

	got, err := store.GetByAccount(ctx, "0xnobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}
