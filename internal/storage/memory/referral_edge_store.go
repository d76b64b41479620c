package memory

import (
	"context"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// ReferralEdgeStore is an in-memory implementation of storage.ReferralEdgeStore.
type ReferralEdgeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ReferralEdge // keyed by user
}

// NewReferralEdgeStore creates a new in-memory referral edge store.
func NewReferralEdgeStore() *ReferralEdgeStore {
	return &ReferralEdgeStore{
		data: make(map[string]*domain.ReferralEdge),
	}
}

// Insert adds a new edge. Returns ErrDuplicateKey if the user already has one.
func (s *ReferralEdgeStore) Insert(_ context.Context, e *domain.ReferralEdge) error {
	if e == nil || e.User == "" || e.Referrer == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.User]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *e
	s.data[e.User] = &cp
	return nil
}

// Get retrieves the edge for a user. Returns ErrNotFound if not exists.
func (s *ReferralEdgeStore) Get(_ context.Context, user string) (*domain.ReferralEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[user]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Len reports the number of stored edges. Test helper.
func (s *ReferralEdgeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.ReferralEdgeStore = (*ReferralEdgeStore)(nil)
