package postgres

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// PairEdgeStore implements storage.PairEdgeStore using PostgreSQL.
type PairEdgeStore struct {
	pool *Pool
}

// NewPairEdgeStore creates a new PairEdgeStore.
func NewPairEdgeStore(pool *Pool) *PairEdgeStore {
	return &PairEdgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairEdgeStore = (*PairEdgeStore)(nil)

// Insert adds an edge. Returns ErrDuplicateKey if the pair exists.
func (s *PairEdgeStore) Insert(ctx context.Context, e *domain.PairEdge) error {
	query := `
		INSERT INTO pair_edges (pair, token0, token1, stable)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, e.Pair, e.Token0, e.Token1, e.Stable)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pair edge: %w", err)
	}
	return nil
}

// EdgesFor retrieves all edges touching a token, ordered by pair ASC.
func (s *PairEdgeStore) EdgesFor(ctx context.Context, token string) ([]*domain.PairEdge, error) {
	query := `
		SELECT pair, token0, token1, stable
		FROM pair_edges
		WHERE token0 = $1 OR token1 = $1
		ORDER BY pair ASC
	`

	rows, err := s.pool.Query(ctx, query, token)
	if err != nil {
		return nil, fmt.Errorf("get pair edges: %w", err)
	}
	defer rows.Close()

	var edges []*domain.PairEdge
	for rows.Next() {
		var e domain.PairEdge
		if err := rows.Scan(&e.Pair, &e.Token0, &e.Token1, &e.Stable); err != nil {
			return nil, fmt.Errorf("scan pair edge row: %w", err)
		}
		edges = append(edges, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pair edge rows: %w", err)
	}
	return edges, nil
}
