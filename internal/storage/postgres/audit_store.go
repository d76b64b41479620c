package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// SwapAuditStore implements storage.SwapAuditStore using PostgreSQL.
type SwapAuditStore struct {
	pool *Pool
}

// NewSwapAuditStore creates a new SwapAuditStore.
func NewSwapAuditStore(pool *Pool) *SwapAuditStore {
	return &SwapAuditStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapAuditStore = (*SwapAuditStore)(nil)

const auditColumns = `
	tx_hash, log_index, trader, parent, grandparent, token_in,
	amount_in::TEXT, stable, round, volume_in_quote::TEXT,
	quote_price::TEXT, volume_in_fiat::TEXT, timestamp
`

// Insert adds a record. Returns ErrDuplicateKey if (tx_hash, log_index)
// exists; the trail is append-only.
func (s *SwapAuditStore) Insert(ctx context.Context, rec *domain.SwapAuditRecord) error {
	query := `
		INSERT INTO swap_audits (
			tx_hash, log_index, trader, parent, grandparent, token_in,
			amount_in, stable, round, volume_in_quote, quote_price,
			volume_in_fiat, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8, $9, $10::NUMERIC, $11::NUMERIC, $12::NUMERIC, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.TxHash,
		rec.LogIndex,
		rec.Trader,
		rec.Parent,
		rec.Grandparent,
		rec.TokenIn,
		rec.AmountIn.String(),
		rec.Stable,
		rec.Round,
		rec.VolumeInQuote.String(),
		rec.QuotePrice.String(),
		rec.VolumeInFiat.String(),
		rec.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert swap audit: %w", err)
	}
	return nil
}

// Has reports whether a record with the given key exists.
func (s *SwapAuditStore) Has(ctx context.Context, txHash string, logIndex uint32) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM swap_audits WHERE tx_hash = $1 AND log_index = $2
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, txHash, logIndex).Scan(&exists); err != nil {
		return false, fmt.Errorf("check swap audit: %w", err)
	}
	return exists, nil
}

// GetByTrader retrieves all records for a trader, ordered by
// (timestamp, tx_hash, log_index) ASC.
func (s *SwapAuditStore) GetByTrader(ctx context.Context, trader string) ([]*domain.SwapAuditRecord, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM swap_audits
		WHERE trader = $1
		ORDER BY timestamp ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, trader)
	if err != nil {
		return nil, fmt.Errorf("get swap audits by trader: %w", err)
	}
	defer rows.Close()

	return scanAuditRecords(rows)
}

// scanAuditRecords scans multiple rows into a slice of SwapAuditRecord.
func scanAuditRecords(rows pgx.Rows) ([]*domain.SwapAuditRecord, error) {
	var records []*domain.SwapAuditRecord

	for rows.Next() {
		var rec domain.SwapAuditRecord
		var amountIn, volumeInQuote, quotePrice, volumeInFiat string

		err := rows.Scan(
			&rec.TxHash,
			&rec.LogIndex,
			&rec.Trader,
			&rec.Parent,
			&rec.Grandparent,
			&rec.TokenIn,
			&amountIn,
			&rec.Stable,
			&rec.Round,
			&volumeInQuote,
			&quotePrice,
			&volumeInFiat,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap audit row: %w", err)
		}

		if rec.AmountIn, err = scanUint(amountIn); err != nil {
			return nil, fmt.Errorf("scan swap audit row: %w", err)
		}
		if rec.VolumeInQuote, err = scanUint(volumeInQuote); err != nil {
			return nil, fmt.Errorf("scan swap audit row: %w", err)
		}
		if rec.QuotePrice, err = scanUint(quotePrice); err != nil {
			return nil, fmt.Errorf("scan swap audit row: %w", err)
		}
		if rec.VolumeInFiat, err = scanUint(volumeInFiat); err != nil {
			return nil, fmt.Errorf("scan swap audit row: %w", err)
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap audit rows: %w", err)
	}
	return records, nil
}
