package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// BalanceStore implements storage.BalanceStore using PostgreSQL.
type BalanceStore struct {
	pool *Pool
}

// NewBalanceStore creates a new BalanceStore.
func NewBalanceStore(pool *Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BalanceStore = (*BalanceStore)(nil)

// Get retrieves a balance. Returns ErrNotFound if not exists.
func (s *BalanceStore) Get(ctx context.Context, token, account string) (*domain.AccumulativeTokenBalance, error) {
	query := `
		SELECT token, account, amount::TEXT, last_update
		FROM token_balances
		WHERE token = $1 AND account = $2
	`

	var b domain.AccumulativeTokenBalance
	var amount string
	err := s.pool.QueryRow(ctx, query, token, account).Scan(&b.Token, &b.Account, &amount, &b.LastUpdate)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}

	if b.Amount, err = scanUint(amount); err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return &b, nil
}

// Save upserts a balance row.
func (s *BalanceStore) Save(ctx context.Context, b *domain.AccumulativeTokenBalance) error {
	query := `
		INSERT INTO token_balances (token, account, amount, last_update)
		VALUES ($1, $2, $3::NUMERIC, $4)
		ON CONFLICT (token, account) DO UPDATE SET
			amount = EXCLUDED.amount,
			last_update = EXCLUDED.last_update
	`

	_, err := s.pool.Exec(ctx, query, b.Token, b.Account, b.Amount.String(), b.LastUpdate)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// ListByToken retrieves all balances for a token, ordered by account ASC.
func (s *BalanceStore) ListByToken(ctx context.Context, token string) ([]*domain.AccumulativeTokenBalance, error) {
	query := `
		SELECT token, account, amount::TEXT, last_update
		FROM token_balances
		WHERE token = $1
		ORDER BY account ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("list balances by token: %w", err)
	}
	defer rows.Close()

	var balances []*domain.AccumulativeTokenBalance
	for rows.Next() {
		var b domain.AccumulativeTokenBalance
		var amount string
		if err := rows.Scan(&b.Token, &b.Account, &amount, &b.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		if b.Amount, err = scanUint(amount); err != nil {
			return nil, fmt.Errorf("scan balance row: %w", err)
		}
		balances = append(balances, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance rows: %w", err)
	}
	return balances, nil
}
