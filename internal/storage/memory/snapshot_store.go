package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// VolumeSnapshotStore is an in-memory implementation of storage.VolumeSnapshotStore.
type VolumeSnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeSnapshot // keyed by account|timestamp
}

// NewVolumeSnapshotStore creates a new in-memory snapshot store.
func NewVolumeSnapshotStore() *VolumeSnapshotStore {
	return &VolumeSnapshotStore{
		data: make(map[string]*domain.VolumeSnapshot),
	}
}

func copySnapshot(s *domain.VolumeSnapshot) *domain.VolumeSnapshot {
	cp := *s
	cp.AsTrader = s.AsTrader.Clone()
	cp.AsReferrer = s.AsReferrer.Clone()
	cp.AsGrandparent = s.AsGrandparent.Clone()
	return &cp
}

// Insert adds a snapshot point. The later write within one (account,
// timestamp) key wins.
func (s *VolumeSnapshotStore) Insert(_ context.Context, snap *domain.VolumeSnapshot) error {
	if snap == nil || snap.Account == "" || snap.AsTrader == nil || snap.AsReferrer == nil || snap.AsGrandparent == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s|%d", snap.Account, snap.Timestamp)
	s.data[key] = copySnapshot(snap)
	return nil
}

// GetByAccount retrieves all points for an account, ordered by timestamp ASC.
func (s *VolumeSnapshotStore) GetByAccount(_ context.Context, account string) ([]*domain.VolumeSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VolumeSnapshot
	for _, snap := range s.data {
		if snap.Account == account {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.VolumeSnapshotStore = (*VolumeSnapshotStore)(nil)
