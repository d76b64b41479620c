package memory

import (
	"context"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// DailyVolumeStore is an in-memory implementation of storage.DailyVolumeStore.
type DailyVolumeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyVolume // keyed by account|pair|day
}

// NewDailyVolumeStore creates a new in-memory daily volume store.
func NewDailyVolumeStore() *DailyVolumeStore {
	return &DailyVolumeStore{
		data: make(map[string]*domain.DailyVolume),
	}
}

func copyDailyVolume(v *domain.DailyVolume) *domain.DailyVolume {
	cp := *v
	cp.AsTrader = v.AsTrader.Clone()
	cp.AsReferrer = v.AsReferrer.Clone()
	cp.AsGrandparent = v.AsGrandparent.Clone()
	return &cp
}

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *DailyVolumeStore) Get(_ context.Context, account, pair string, day int64) (*domain.DailyVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[epochKey(account, pair, day)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyDailyVolume(v), nil
}

// Save upserts a row.
func (s *DailyVolumeStore) Save(_ context.Context, v *domain.DailyVolume) error {
	if v == nil || v.Account == "" || v.AsTrader == nil || v.AsReferrer == nil || v.AsGrandparent == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[epochKey(v.Account, v.Pair, v.Day)] = copyDailyVolume(v)
	return nil
}

// Len reports the number of stored rows. Test helper.
func (s *DailyVolumeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.DailyVolumeStore = (*DailyVolumeStore)(nil)
