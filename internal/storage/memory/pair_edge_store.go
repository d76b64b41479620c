package memory

import (
	"context"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// PairEdgeStore is an in-memory implementation of storage.PairEdgeStore.
type PairEdgeStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.PairEdge // keyed by pair address
	byToken map[string][]string         // token -> pair addresses
}

// NewPairEdgeStore creates a new in-memory pair edge store.
func NewPairEdgeStore() *PairEdgeStore {
	return &PairEdgeStore{
		data:    make(map[string]*domain.PairEdge),
		byToken: make(map[string][]string),
	}
}

// Insert adds an edge. Returns ErrDuplicateKey if the pair exists.
func (s *PairEdgeStore) Insert(_ context.Context, e *domain.PairEdge) error {
	if e == nil || e.Pair == "" || e.Token0 == "" || e.Token1 == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Pair]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *e
	s.data[e.Pair] = &cp
	s.byToken[e.Token0] = append(s.byToken[e.Token0], e.Pair)
	s.byToken[e.Token1] = append(s.byToken[e.Token1], e.Pair)
	return nil
}

// EdgesFor retrieves all edges touching a token, ordered by pair ASC.
func (s *PairEdgeStore) EdgesFor(_ context.Context, token string) ([]*domain.PairEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := s.byToken[token]
	result := make([]*domain.PairEdge, 0, len(pairs))
	for _, p := range pairs {
		cp := *s.data[p]
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Pair < result[j].Pair
	})

	return result, nil
}

var _ storage.PairEdgeStore = (*PairEdgeStore)(nil)
