package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// GeneratedVolumeStore implements storage.GeneratedVolumeStore using
// PostgreSQL.
type GeneratedVolumeStore struct {
	pool *Pool
}

// NewGeneratedVolumeStore creates a new GeneratedVolumeStore.
func NewGeneratedVolumeStore(pool *Pool) *GeneratedVolumeStore {
	return &GeneratedVolumeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.GeneratedVolumeStore = (*GeneratedVolumeStore)(nil)

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *GeneratedVolumeStore) Get(ctx context.Context, account, pair string) (*domain.GeneratedVolume, error) {
	query := `
		SELECT account, pair, as_trader::TEXT, as_referrer::TEXT, as_grandparent::TEXT, last_update
		FROM generated_volumes
		WHERE account = $1 AND pair = $2
	`

	row := s.pool.QueryRow(ctx, query, account, pair)
	v, err := scanGeneratedVolumeRow(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get generated volume: %w", err)
	}
	return v, nil
}

// Save upserts a row.
func (s *GeneratedVolumeStore) Save(ctx context.Context, v *domain.GeneratedVolume) error {
	query := `
		INSERT INTO generated_volumes (account, pair, as_trader, as_referrer, as_grandparent, last_update)
		VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC, $6)
		ON CONFLICT (account, pair) DO UPDATE SET
			as_trader = EXCLUDED.as_trader,
			as_referrer = EXCLUDED.as_referrer,
			as_grandparent = EXCLUDED.as_grandparent,
			last_update = EXCLUDED.last_update
	`

	_, err := s.pool.Exec(ctx, query,
		v.Account,
		v.Pair,
		v.AsTrader.String(),
		v.AsReferrer.String(),
		v.AsGrandparent.String(),
		v.LastUpdate,
	)
	if err != nil {
		return fmt.Errorf("save generated volume: %w", err)
	}
	return nil
}

// List retrieves all rows, ordered by (account, pair) ASC.
func (s *GeneratedVolumeStore) List(ctx context.Context) ([]*domain.GeneratedVolume, error) {
	query := `
		SELECT account, pair, as_trader::TEXT, as_referrer::TEXT, as_grandparent::TEXT, last_update
		FROM generated_volumes
		ORDER BY account ASC, pair ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list generated volumes: %w", err)
	}
	defer rows.Close()

	var volumes []*domain.GeneratedVolume
	for rows.Next() {
		v, err := scanGeneratedVolumeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generated volume row: %w", err)
		}
		volumes = append(volumes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generated volume rows: %w", err)
	}
	return volumes, nil
}

// scanGeneratedVolumeRow scans one row with the amount columns as text.
func scanGeneratedVolumeRow(row pgx.Row) (*domain.GeneratedVolume, error) {
	var v domain.GeneratedVolume
	var asTrader, asReferrer, asGrandparent string

	err := row.Scan(&v.Account, &v.Pair, &asTrader, &asReferrer, &asGrandparent, &v.LastUpdate)
	if err != nil {
		return nil, err
	}

	if v.AsTrader, err = scanUint(asTrader); err != nil {
		return nil, err
	}
	if v.AsReferrer, err = scanUint(asReferrer); err != nil {
		return nil, err
	}
	if v.AsGrandparent, err = scanUint(asGrandparent); err != nil {
		return nil, err
	}
	return &v, nil
}
