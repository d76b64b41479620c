package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// ReferralEdgeStore implements storage.ReferralEdgeStore using PostgreSQL.
type ReferralEdgeStore struct {
	pool *Pool
}

// NewReferralEdgeStore creates a new ReferralEdgeStore.
func NewReferralEdgeStore(pool *Pool) *ReferralEdgeStore {
	return &ReferralEdgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReferralEdgeStore = (*ReferralEdgeStore)(nil)

// Insert adds a new edge. Returns ErrDuplicateKey if an edge for the user
// already exists; edges are never overwritten.
func (s *ReferralEdgeStore) Insert(ctx context.Context, e *domain.ReferralEdge) error {
	query := `
		INSERT INTO referral_edges (user_address, referrer_address, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query, e.User, e.Referrer, e.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert referral edge: %w", err)
	}
	return nil
}

// Get retrieves the edge for a user. Returns ErrNotFound if not exists.
func (s *ReferralEdgeStore) Get(ctx context.Context, user string) (*domain.ReferralEdge, error) {
	query := `
		SELECT user_address, referrer_address, created_at
		FROM referral_edges
		WHERE user_address = $1
	`

	var e domain.ReferralEdge
	err := s.pool.QueryRow(ctx, query, user).Scan(&e.User, &e.Referrer, &e.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get referral edge: %w", err)
	}
	return &e, nil
}
