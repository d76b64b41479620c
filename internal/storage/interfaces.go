package storage

import (
	"context"

	"referral-attribution/internal/domain"
)

// ReferralEdgeStore provides access to referral edge storage.
// Edges are append-only: one per trader, never overwritten.
type ReferralEdgeStore interface {
	// Insert adds a new edge. Returns ErrDuplicateKey if an edge for the
	// user already exists.
	Insert(ctx context.Context, e *domain.ReferralEdge) error

	// Get retrieves the edge for a user. Returns ErrNotFound if not exists.
	Get(ctx context.Context, user string) (*domain.ReferralEdge, error)
}

// BalanceStore provides access to accrued reward balances, keyed by
// (token, account).
type BalanceStore interface {
	// Get retrieves a balance. Returns ErrNotFound if not exists.
	Get(ctx context.Context, token, account string) (*domain.AccumulativeTokenBalance, error)

	// Save upserts a balance row.
	Save(ctx context.Context, b *domain.AccumulativeTokenBalance) error

	// ListByToken retrieves all balances for a token, ordered by account ASC.
	ListByToken(ctx context.Context, token string) ([]*domain.AccumulativeTokenBalance, error)
}

// GeneratedVolumeStore provides access to lifetime volume rows, keyed by
// (account[, pair]).
type GeneratedVolumeStore interface {
	// Get retrieves a row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, account, pair string) (*domain.GeneratedVolume, error)

	// Save upserts a row.
	Save(ctx context.Context, v *domain.GeneratedVolume) error

	// List retrieves all rows, ordered by (account, pair) ASC.
	List(ctx context.Context) ([]*domain.GeneratedVolume, error)
}

// EpochVolumeStore provides access to per-epoch volume rows, keyed by
// (account, epoch[, pair]).
type EpochVolumeStore interface {
	// Get retrieves a row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, account, pair string, epoch int64) (*domain.EpochVolume, error)

	// Save upserts a row.
	Save(ctx context.Context, v *domain.EpochVolume) error
}

// DailyVolumeStore provides access to per-day volume rows, keyed by
// (account, day[, pair]).
type DailyVolumeStore interface {
	// Get retrieves a row. Returns ErrNotFound if not exists.
	Get(ctx context.Context, account, pair string, day int64) (*domain.DailyVolume, error)

	// Save upserts a row.
	Save(ctx context.Context, v *domain.DailyVolume) error
}

// VolumeSnapshotStore provides access to the append-style lifetime
// snapshot timeseries.
type VolumeSnapshotStore interface {
	// Insert adds a snapshot point. Duplicate (account, timestamp) pairs
	// overwrite: the later write within one timestamp wins.
	Insert(ctx context.Context, s *domain.VolumeSnapshot) error

	// GetByAccount retrieves all points for an account, ordered by
	// timestamp ASC.
	GetByAccount(ctx context.Context, account string) ([]*domain.VolumeSnapshot, error)
}

// LotteryRoundStore provides access to round aggregates.
type LotteryRoundStore interface {
	// Get retrieves a round. Returns ErrNotFound if not exists.
	Get(ctx context.Context, round int64) (*domain.LotteryRound, error)

	// Save upserts a round.
	Save(ctx context.Context, r *domain.LotteryRound) error
}

// UserLotteryStore provides access to per-user round entries.
type UserLotteryStore interface {
	// Get retrieves an entry. Returns ErrNotFound if not exists.
	Get(ctx context.Context, round int64, user string) (*domain.UserLotteryEntry, error)

	// Save upserts an entry.
	Save(ctx context.Context, e *domain.UserLotteryEntry) error

	// ListByRound retrieves all entries for a round, ordered by user ASC.
	ListByRound(ctx context.Context, round int64) ([]*domain.UserLotteryEntry, error)
}

// SwapAuditStore provides access to the immutable swap audit trail.
type SwapAuditStore interface {
	// Insert adds a record. Returns ErrDuplicateKey if (tx_hash, log_index)
	// exists.
	Insert(ctx context.Context, rec *domain.SwapAuditRecord) error

	// Has reports whether a record with the given key exists. Used by the
	// delivery driver to deduplicate before invoking the core.
	Has(ctx context.Context, txHash string, logIndex uint32) (bool, error)

	// GetByTrader retrieves all records for a trader, ordered by
	// (timestamp, tx_hash, log_index) ASC.
	GetByTrader(ctx context.Context, trader string) ([]*domain.SwapAuditRecord, error)
}

// PairEdgeStore provides access to the pair graph used for quote routing.
type PairEdgeStore interface {
	// Insert adds an edge. Returns ErrDuplicateKey if the pair exists.
	Insert(ctx context.Context, e *domain.PairEdge) error

	// EdgesFor retrieves all edges touching a token, ordered by pair ASC.
	EdgesFor(ctx context.Context, token string) ([]*domain.PairEdge, error)
}
