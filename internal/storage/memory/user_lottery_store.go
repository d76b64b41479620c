package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// UserLotteryStore is an in-memory implementation of storage.UserLotteryStore.
type UserLotteryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.UserLotteryEntry // keyed by round|user
}

// NewUserLotteryStore creates a new in-memory user lottery store.
func NewUserLotteryStore() *UserLotteryStore {
	return &UserLotteryStore{
		data: make(map[string]*domain.UserLotteryEntry),
	}
}

func userLotteryKey(round int64, user string) string {
	return fmt.Sprintf("%d|%s", round, user)
}

// Get retrieves an entry. Returns ErrNotFound if not exists.
func (s *UserLotteryStore) Get(_ context.Context, round int64, user string) (*domain.UserLotteryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[userLotteryKey(round, user)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Save upserts an entry.
func (s *UserLotteryStore) Save(_ context.Context, e *domain.UserLotteryEntry) error {
	if e == nil || e.User == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.data[userLotteryKey(e.Round, e.User)] = &cp
	return nil
}

// ListByRound retrieves all entries for a round, ordered by user ASC.
func (s *UserLotteryStore) ListByRound(_ context.Context, round int64) ([]*domain.UserLotteryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.UserLotteryEntry
	for _, e := range s.data {
		if e.Round == round {
			cp := *e
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].User < result[j].User
	})

	return result, nil
}

// Len reports the number of stored entries. Test helper.
func (s *UserLotteryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.UserLotteryStore = (*UserLotteryStore)(nil)
