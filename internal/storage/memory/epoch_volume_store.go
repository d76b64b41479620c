package memory

import (
	"context"
	"fmt"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// EpochVolumeStore is an in-memory implementation of storage.EpochVolumeStore.
type EpochVolumeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.EpochVolume // keyed by account|pair|epoch
}

// NewEpochVolumeStore creates a new in-memory epoch volume store.
func NewEpochVolumeStore() *EpochVolumeStore {
	return &EpochVolumeStore{
		data: make(map[string]*domain.EpochVolume),
	}
}

func epochKey(account, pair string, epoch int64) string {
	return fmt.Sprintf("%s|%s|%d", account, pair, epoch)
}

func copyEpochVolume(v *domain.EpochVolume) *domain.EpochVolume {
	cp := *v
	cp.AsTrader = v.AsTrader.Clone()
	cp.AsReferrer = v.AsReferrer.Clone()
	cp.AsGrandparent = v.AsGrandparent.Clone()
	return &cp
}

// Get retrieves a row. Returns ErrNotFound if not exists.
func (s *EpochVolumeStore) Get(_ context.Context, account, pair string, epoch int64) (*domain.EpochVolume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[epochKey(account, pair, epoch)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyEpochVolume(v), nil
}

// Save upserts a row.
func (s *EpochVolumeStore) Save(_ context.Context, v *domain.EpochVolume) error {
	if v == nil || v.Account == "" || v.AsTrader == nil || v.AsReferrer == nil || v.AsGrandparent == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[epochKey(v.Account, v.Pair, v.Epoch)] = copyEpochVolume(v)
	return nil
}

// Len reports the number of stored rows. Test helper.
func (s *EpochVolumeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.EpochVolumeStore = (*EpochVolumeStore)(nil)
