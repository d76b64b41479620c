package memory

import (
	"context"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// LotteryRoundStore is an in-memory implementation of storage.LotteryRoundStore.
type LotteryRoundStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.LotteryRound
}

// NewLotteryRoundStore creates a new in-memory lottery round store.
func NewLotteryRoundStore() *LotteryRoundStore {
	return &LotteryRoundStore{
		data: make(map[int64]*domain.LotteryRound),
	}
}

// Get retrieves a round. Returns ErrNotFound if not exists.
func (s *LotteryRoundStore) Get(_ context.Context, round int64) (*domain.LotteryRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[round]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// Save upserts a round.
func (s *LotteryRoundStore) Save(_ context.Context, r *domain.LotteryRound) error {
	if r == nil || r.Round < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.data[r.Round] = &cp
	return nil
}

// Len reports the number of stored rounds. Test helper.
func (s *LotteryRoundStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.LotteryRoundStore = (*LotteryRoundStore)(nil)
