package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// DailyVolumeStore implements storage.DailyVolumeStore using PostgreSQL.
type DailyVolumeStore struct {
	pool *Pool
}

// NewDailyVolumeStore creates a new DailyVolumeStore.
func NewDailyVolumeStore(pool *Pool) *DailyVolumeStore {
	return &DailyVolumeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyVolumeStore = (*DailyVolumeStore)(nil)

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *DailyVolumeStore) Get(ctx context.Context, account, pair string, day int64) (*domain.DailyVolume, error) {
	query := `
		SELECT account, pair, day, as_trader::TEXT, as_referrer::TEXT, as_grandparent::TEXT, last_update
		FROM daily_volumes
		WHERE account = $1 AND pair = $2 AND day = $3
	`

	var v domain.DailyVolume
	var asTrader, asReferrer, asGrandparent string
	err := s.pool.QueryRow(ctx, query, account, pair, day).Scan(
		&v.Account, &v.Pair, &v.Day, &asTrader, &asReferrer, &asGrandparent, &v.LastUpdate,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get daily volume: %w", err)
	}

	if v.AsTrader, err = scanUint(asTrader); err != nil {
		return nil, fmt.Errorf("get daily volume: %w", err)
	}
	if v.AsReferrer, err = scanUint(asReferrer); err != nil {
		return nil, fmt.Errorf("get daily volume: %w", err)
	}
	if v.AsGrandparent, err = scanUint(asGrandparent); err != nil {
		return nil, fmt.Errorf("get daily volume: %w", err)
	}
	return &v, nil
}

// Save upserts a row.
func (s *DailyVolumeStore) Save(ctx context.Context, v *domain.DailyVolume) error {
	query := `
		INSERT INTO daily_volumes (account, pair, day, as_trader, as_referrer, as_grandparent, last_update)
		VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7)
		ON CONFLICT (account, pair, day) DO UPDATE SET
			as_trader = EXCLUDED.as_trader,
			as_referrer = EXCLUDED.as_referrer,
			as_grandparent = EXCLUDED.as_grandparent,
			last_update = EXCLUDED.last_update
	`

	_, err := s.pool.Exec(ctx, query,
		v.Account,
		v.Pair,
		v.Day,
		v.AsTrader.String(),
		v.AsReferrer.String(),
		v.AsGrandparent.String(),
		v.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("save daily volume: %w", err)
	}
	return nil
}
