package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// BalanceStore is an in-memory implementation of storage.BalanceStore.
type BalanceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AccumulativeTokenBalance // keyed by token|account
}

// NewBalanceStore creates a new in-memory balance store.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{
		data: make(map[string]*domain.AccumulativeTokenBalance),
	}
}

func balanceKey(token, account string) string {
	return fmt.Sprintf("%s|%s", token, account)
}

func copyBalance(b *domain.AccumulativeTokenBalance) *domain.AccumulativeTokenBalance {
	cp := *b
	cp.Amount = b.Amount.Clone()
	return &cp
}

// Get retrieves a balance. Returns ErrNotFound if not exists.
func (s *BalanceStore) Get(_ context.Context, token, account string) (*domain.AccumulativeTokenBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.data[balanceKey(token, account)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyBalance(b), nil
}

// Save upserts a balance row.
func (s *BalanceStore) Save(_ context.Context, b *domain.AccumulativeTokenBalance) error {
	if b == nil || b.Token == "" || b.Account == "" || b.Amount == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[balanceKey(b.Token, b.Account)] = copyBalance(b)
	return nil
}

// ListByToken retrieves all balances for a token, ordered by account ASC.
func (s *BalanceStore) ListByToken(_ context.Context, token string) ([]*domain.AccumulativeTokenBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AccumulativeTokenBalance
	for _, b := range s.data {
		if b.Token == token {
			result = append(result, copyBalance(b))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Account < result[j].Account
	})

	return result, nil
}

// Len reports the number of stored balance rows. Test helper.
func (s *BalanceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.BalanceStore = (*BalanceStore)(nil)
