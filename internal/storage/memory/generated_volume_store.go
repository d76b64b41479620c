package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// GeneratedVolumeStore is an in-memory implementation of storage.GeneratedVolumeStore.
type GeneratedVolumeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.GeneratedVolume // keyed by account|pair
}

// NewGeneratedVolumeStore creates a new in-memory lifetime volume store.
func NewGeneratedVolumeStore() *GeneratedVolumeStore {
	return &GeneratedVolumeStore{
		data: make(map[string]*domain.GeneratedVolume),
	}
}

func volumeKey(account, pair string) string {
	return fmt.Sprintf("%s|%s", account, pair)
}

func copyGeneratedVolume(v *domain.GeneratedVolume) *domain.GeneratedVolume {
	cp := *v
	cp.AsTrader = v.AsTrader.Clone()
	cp.AsReferrer = v.AsReferrer.Clone()
	cp.AsGrandparent = v.AsGrandparent.Clone()
	return &cp
}

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *GeneratedVolumeStore) Get(_ context.Context, account, pair string) (*domain.GeneratedVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[volumeKey(account, pair)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyGeneratedVolume(v), nil
}

// Save upserts a row.
func (s *GeneratedVolumeStore) Save(_ context.Context, v *domain.GeneratedVolume) error {
	if v == nil || v.Account == "" || v.AsTrader == nil || v.AsReferrer == nil || v.AsGrandparent == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[volumeKey(v.Account, v.Pair)] = copyGeneratedVolume(v)
	return nil
}

// List retrieves all rows, ordered by (account, pair) ASC.
func (s *GeneratedVolumeStore) List(_ context.Context) ([]*domain.GeneratedVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.GeneratedVolume, 0, len(s.data))
	for _, v := range s.data {
		result = append(result, copyGeneratedVolume(v))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Account != result[j].Account {
			return result[i].Account < result[j].Account
		}
		return result[i].Pair < result[j].Pair
	})

	return result, nil
}

// Len reports the number of stored rows. Test helper.
func (s *GeneratedVolumeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.GeneratedVolumeStore = (*GeneratedVolumeStore)(nil)
