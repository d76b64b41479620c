package memory

import (
	"context"
	"errors"
	"testing"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

func TestUserLotteryStore_SaveAndGet(t *testing.T) {
	store := NewUserLotteryStore()
	ctx := context.Background()

	e := &domain.UserLotteryEntry{Round: 4, User: "0xuser", Tickets: 3}
	if err := store.Save(ctx, e); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, 4, "0xuser")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Tickets != 3 {
		t.Errorf("Tickets mismatch: got %d, want 3", got.Tickets)
	}

	if _, err := store.Get(ctx, 5, "0xuser"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing round, got %v", err)
	}
}

func TestUserLotteryStore_SaveUpserts(t *testing.T) {
	store := NewUserLotteryStore()
	ctx := context.Background()

	if err := store.Save(ctx, &domain.UserLotteryEntry{Round: 1, User: "0xuser", Tickets: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, &domain.UserLotteryEntry{Round: 1, User: "0xuser", Tickets: 5}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, 1, "0xuser")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Tickets != 5 {
		t.Errorf("Tickets after upsert: got %d, want 5", got.Tickets)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 entry after upsert, got %d", store.Len())
	}
}

func TestUserLotteryStore_ListByRoundOrdering(t *testing.T) {
	store := NewUserLotteryStore()
	ctx := context.Background()

	entries := []*domain.UserLotteryEntry{
		{Round: 2, User: "0xbbb", Tickets: 2},
		{Round: 2, User: "0xaaa", Tickets: 1},
		{Round: 3, User: "0xccc", Tickets: 9},
	}
	for _, e := range entries {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := store.ListByRound(ctx, 2)
	if err != nil {
		t.Fatalf("ListByRound failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries for round 2, got %d", len(got))
	}
	if got[0].User != "0xaaa" || got[1].User != "0xbbb" {
		t.Errorf("Entries not ordered by user: got %s, %s", got[0].User, got[1].User)
	}
	if store.Len() != 3 {
		t.Errorf("Expected 3 entries total, got %d", store.Len())
	}
}

func TestUserLotteryStore_InvalidInput(t *testing.T) {
	store := NewUserLotteryStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil entry, got %v", err)
	}
	if err := store.Save(ctx, &domain.UserLotteryEntry{Round: 1}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty user, got %v", err)
	}
}
