package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// SwapAuditStore is an in-memory implementation of storage.SwapAuditStore.
type SwapAuditStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapAuditRecord // keyed by tx_hash|log_index
}

// NewSwapAuditStore creates a new in-memory audit store.
func NewSwapAuditStore() *SwapAuditStore {
	return &SwapAuditStore{
		data: make(map[string]*domain.SwapAuditRecord),
	}
}

func auditKey(txHash string, logIndex uint32) string {
	return fmt.Sprintf("%s|%d", txHash, logIndex)
}

func copyAuditRecord(r *domain.SwapAuditRecord) *domain.SwapAuditRecord {
	cp := *r
	cp.AmountIn = r.AmountIn.Clone()
	cp.VolumeInQuote = r.VolumeInQuote.Clone()
	cp.QuotePrice = r.QuotePrice.Clone()
	cp.VolumeInFiat = r.VolumeInFiat.Clone()
	return &cp
}

// Insert adds a record. Returns ErrDuplicateKey if (tx_hash, log_index) exists.
func (s *SwapAuditStore) Insert(_ context.Context, rec *domain.SwapAuditRecord) error {
	if rec == nil || rec.TxHash == "" || rec.AmountIn == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := auditKey(rec.TxHash, rec.LogIndex)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[key] = copyAuditRecord(rec)
	return nil
}

// Has reports whether a record with the given key exists.
func (s *SwapAuditStore) Has(_ context.Context, txHash string, logIndex uint32) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[auditKey(txHash, logIndex)]
	return ok, nil
}

// GetByTrader retrieves all records for a trader, ordered by
// (timestamp, tx_hash, log_index) ASC.
func (s *SwapAuditStore) GetByTrader(_ context.Context, trader string) ([]*domain.SwapAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapAuditRecord
	for _, rec := range s.data {
		if rec.Trader == trader {
			result = append(result, copyAuditRecord(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		if result[i].TxHash != result[j].TxHash {
			return result[i].TxHash < result[j].TxHash
		}
		return result[i].LogIndex < result[j].LogIndex
	})

	return result, nil
}

// Len reports the number of stored records. Test helper.
func (s *SwapAuditStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.SwapAuditStore = (*SwapAuditStore)(nil)
