package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// EpochVolumeStore implements storage.EpochVolumeStore using PostgreSQL.
type EpochVolumeStore struct {
	pool *Pool
}

// NewEpochVolumeStore creates a new EpochVolumeStore.
func NewEpochVolumeStore(pool *Pool) *EpochVolumeStore {
	return &EpochVolumeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EpochVolumeStore = (*EpochVolumeStore)(nil)

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *EpochVolumeStore) Get(ctx context.Context, account, pair string, epoch int64) (*domain.EpochVolume, error) {
	query := `
		SELECT account, pair, epoch, as_trader::TEXT, as_referrer::TEXT, as_grandparent::TEXT, last_update
		FROM epoch_volumes
		WHERE account = $1 AND pair = $2 AND epoch = $3
	`

	var v domain.EpochVolume
	var asTrader, asReferrer, asGrandparent string
	err := s.pool.QueryRow(ctx, query, account, pair, epoch).Scan(
		&v.Account, &v.Pair, &v.Epoch, &asTrader, &asReferrer, &asGrandparent, &v.LastUpdate,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get epoch volume: %w", err)
	}

	if v.AsTrader, err = scanUint(asTrader); err != nil {
		return nil, fmt.Errorf("get epoch volume: %w", err)
	}
	if v.AsReferrer, err = scanUint(asReferrer); err != nil {
		return nil, fmt.Errorf("get epoch volume: %w", err)
	}
	if v.AsGrandparent, err = scanUint(asGrandparent); err != nil {
		return nil, fmt.Errorf("get epoch volume: %w", err)
	}
	return &v, nil
}

// Save upserts a row.
func (s *EpochVolumeStore) Save(ctx context.Context, v *domain.EpochVolume) error {
	query := `
		INSERT INTO epoch_volumes (account, pair, epoch, as_trader, as_referrer, as_grandparent, last_update)
		VALUES ($1, $2, $3, $4::NUMERIC, $5::NUMERIC, $6::NUMERIC, $7)
		ON CONFLICT (account, pair, epoch) DO UPDATE SET
			as_trader = EXCLUDED.as_trader,
			as_referrer = EXCLUDED.as_referrer,
			as_grandparent = EXCLUDED.as_grandparent,
			last_update = EXCLUDED.last_update
	`

	_, err := s.pool.Exec(ctx, query,
		v.Account,
		v.Pair,
		v.Epoch,
		v.AsTrader.String(),
		v.AsReferrer.String(),
		v.AsGrandparent.String(),
		v.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("save epoch volume: %w", err)
	}
	return nil
}
