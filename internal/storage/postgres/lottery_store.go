package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// LotteryRoundStore implements storage.LotteryRoundStore using PostgreSQL.
type LotteryRoundStore struct {
	pool *Pool
}

// NewLotteryRoundStore creates a new LotteryRoundStore.
func NewLotteryRoundStore(pool *Pool) *LotteryRoundStore {
	return &LotteryRoundStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LotteryRoundStore = (*LotteryRoundStore)(nil)

// Get retrieves a round. Returns ErrNotFound if not exists.
func (s *LotteryRoundStore) Get(ctx context.Context, round int64) (*domain.LotteryRound, error) {
	query := `
		SELECT round, total_tickets
		FROM lottery_rounds
		WHERE round = $1
	`

	var r domain.LotteryRound
	err := s.pool.QueryRow(ctx, query, round).Scan(&r.Round, &r.TotalTickets)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get lottery round: %w", err)
	}
	return &r, nil
}

// Save upserts a round.
func (s *LotteryRoundStore) Save(ctx context.Context, r *domain.LotteryRound) error {
	query := `
		INSERT INTO lottery_rounds (round, total_tickets)
		VALUES ($1, $2)
		ON CONFLICT (round) DO UPDATE SET
			total_tickets = EXCLUDED.total_tickets
	`

	_, err := s.pool.Exec(ctx, query, r.Round, r.TotalTickets)
	if err != nil {
		return fmt.Errorf("save lottery round: %w", err)
	}
	return nil
}

// UserLotteryStore implements storage.UserLotteryStore using PostgreSQL.
type UserLotteryStore struct {
	pool *Pool
}

// NewUserLotteryStore creates a new UserLotteryStore.
func NewUserLotteryStore(pool *Pool) *UserLotteryStore {
	return &UserLotteryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserLotteryStore = (*UserLotteryStore)(nil)

// Get retrieves an entry. Returns ErrNotFound if not exists.
func (s *UserLotteryStore) Get(ctx context.Context, round int64, user string) (*domain.UserLotteryEntry, error) {
	query := `
		SELECT round, user_address, tickets
		FROM user_lottery_entries
		WHERE round = $1 AND user_address = $2
	`

	var e domain.UserLotteryEntry
	err := s.pool.QueryRow(ctx, query, round, user).Scan(&e.Round, &e.User, &e.Tickets)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get lottery entry: %w", err)
	}
	return &e, nil
}

// Save upserts an entry.
func (s *UserLotteryStore) Save(ctx context.Context, e *domain.UserLotteryEntry) error {
	query := `
		INSERT INTO user_lottery_entries (round, user_address, tickets)
		VALUES ($1, $2, $3)
		ON CONFLICT (round, user_address) DO UPDATE SET
			tickets = EXCLUDED.tickets
	`

	_, err := s.pool.Exec(ctx, query, e.Round, e.User, e.Tickets)
	if err != nil {
		return fmt.Errorf("save lottery entry: %w", err)
	}
	return nil
}

// ListByRound retrieves all entries for a round, ordered by user ASC.
func (s *UserLotteryStore) ListByRound(ctx context.Context, round int64) ([]*domain.UserLotteryEntry, error) {
	query := `
		SELECT round, user_address, tickets
		FROM user_lottery_entries
		WHERE round = $1
		ORDER BY user_address ASC
	`

	rows, err := s.pool.Query(ctx, query, round)
	if err != nil {
		return nil, fmt.Errorf("list lottery entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.UserLotteryEntry
	for rows.Next() {
		var e domain.UserLotteryEntry
		if err := rows.Scan(&e.Round, &e.User, &e.Tickets); err != nil {
			return nil, fmt.Errorf("scan lottery entry row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lottery entry rows: %w", err)
	}
	return entries, nil
}
