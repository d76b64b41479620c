package feed

import (
	"errors"
	"sort"

	"referral-attribution/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortEvents orders events by (block_number ASC, tx_hash ASC, log_index ASC).
// This provides deterministic ordering based on chain order.
func SortEvents(events []*domain.SwapEvent) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// ValidateOrdering checks if events are properly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateOrdering(events []*domain.SwapEvent) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block_number ASC, tx_hash ASC, log_index ASC)
func compareEvents(a, b *domain.SwapEvent) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.TxHash != b.TxHash {
		if a.TxHash < b.TxHash {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}
