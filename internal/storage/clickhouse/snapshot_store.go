package clickhouse

import (
	"context"
	"fmt"
	"math/big"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/storage"
)

// VolumeSnapshotStore implements storage.VolumeSnapshotStore using
// ClickHouse. The table is a ReplacingMergeTree keyed on
// (account, timestamp): rewriting a point is an insert and the engine
// keeps the last version.
type VolumeSnapshotStore struct {
	conn *Conn
}

// NewVolumeSnapshotStore creates a new VolumeSnapshotStore.
func NewVolumeSnapshotStore(conn *Conn) *VolumeSnapshotStore {
	return &VolumeSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.VolumeSnapshotStore = (*VolumeSnapshotStore)(nil)

// Insert adds a snapshot point. A point with an existing
// (account, timestamp) key replaces the earlier one.
func (s *VolumeSnapshotStore) Insert(ctx context.Context, snap *domain.VolumeSnapshot) error {
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO volume_snapshots (
			account, timestamp, as_trader, as_referrer, as_grandparent
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		snap.Account,
		snap.Timestamp,
		snap.AsTrader.BigInt(),
		snap.AsReferrer.BigInt(),
		snap.AsGrandparent.BigInt(),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAccount retrieves all points for an account, ordered by
// timestamp ASC. FINAL collapses replaced versions of a point.
func (s *VolumeSnapshotStore) GetByAccount(ctx context.Context, account string) ([]*domain.VolumeSnapshot, error) {
	query := `
		SELECT account, timestamp, as_trader, as_referrer, as_grandparent
		FROM volume_snapshots FINAL
		WHERE account = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by account: %w", err)
	}
	defer rows.Close()

	var snapshots []*domain.VolumeSnapshot
	for rows.Next() {
		var snap domain.VolumeSnapshot
		var asTrader, asReferrer, asGrandparent big.Int

		err := rows.Scan(&snap.Account, &snap.Timestamp, &asTrader, &asReferrer, &asGrandparent)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		if snap.AsTrader, err = uintFromBig(&asTrader); err != nil {
			return nil, err
		}
		if snap.AsReferrer, err = uintFromBig(&asReferrer); err != nil {
			return nil, err
		}
		if snap.AsGrandparent, err = uintFromBig(&asGrandparent); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

func uintFromBig(b *big.Int) (*num.Uint, error) {
	v, failed := num.UintFromBig(b)
	if failed {
		return nil, fmt.Errorf("uint256 column out of range: %s", b)
	}
	return v, nil
}
