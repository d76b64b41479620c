package feed

import (
	"errors"
	"testing"

	"referral-attribution/internal/domain"
)

func TestSortEvents(t *testing.T) {
	// Intentionally unordered events
	events := []*domain.SwapEvent{
		{BlockNumber: 200, TxHash: "0xb", LogIndex: 0},
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 1},
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 0},
		{BlockNumber: 100, TxHash: "0xb", LogIndex: 0},
		{BlockNumber: 300, TxHash: "0xa", LogIndex: 0},
	}

	SortEvents(events)

	// Verify order: (block_number ASC, tx_hash ASC, log_index ASC)
	expected := []struct {
		block    int64
		txHash   string
		logIndex uint32
	}{
		{100, "0xa", 0},
		{100, "0xa", 1},
		{100, "0xb", 0},
		{200, "0xb", 0},
		{300, "0xa", 0},
	}

	for i, exp := range expected {
		if events[i].BlockNumber != exp.block || events[i].TxHash != exp.txHash || events[i].LogIndex != exp.logIndex {
			t.Errorf("Index %d: got (%d, %s, %d), want (%d, %s, %d)",
				i, events[i].BlockNumber, events[i].TxHash, events[i].LogIndex,
				exp.block, exp.txHash, exp.logIndex)
		}
	}
}

func TestSortEvents_Empty(t *testing.T) {
	var events []*domain.SwapEvent
	SortEvents(events) // Should not panic
}

func TestSortEvents_SingleElement(t *testing.T) {
	events := []*domain.SwapEvent{{BlockNumber: 100, TxHash: "0xa", LogIndex: 0}}
	SortEvents(events)
	if events[0].BlockNumber != 100 {
		t.Error("Single element should remain unchanged")
	}
}

func TestValidateOrdering_Valid(t *testing.T) {
	events := []*domain.SwapEvent{
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 0},
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 1},
		{BlockNumber: 100, TxHash: "0xb", LogIndex: 0},
		{BlockNumber: 200, TxHash: "0xa", LogIndex: 0},
	}

	if err := ValidateOrdering(events); err != nil {
		t.Errorf("Expected valid ordering, got %v", err)
	}
}

func TestValidateOrdering_Invalid(t *testing.T) {
	events := []*domain.SwapEvent{
		{BlockNumber: 200, TxHash: "0xa", LogIndex: 0},
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 0},
	}

	err := ValidateOrdering(events)
	if !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("Expected ErrInvalidOrdering, got %v", err)
	}
}

func TestValidateOrdering_Duplicate(t *testing.T) {
	events := []*domain.SwapEvent{
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 0},
		{BlockNumber: 100, TxHash: "0xa", LogIndex: 0},
	}

	err := ValidateOrdering(events)
	if !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("Expected ErrInvalidOrdering for duplicate, got %v", err)
	}
}

func TestValidateOrdering_Empty(t *testing.T) {
	if err := ValidateOrdering(nil); err != nil {
		t.Errorf("Empty slice should be valid, got %v", err)
	}
}
