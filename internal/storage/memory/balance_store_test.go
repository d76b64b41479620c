package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/storage"
)

func TestBalanceStore_SaveAndGet(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	b := &domain.AccumulativeTokenBalance{
		Token:      "0xtoken",
		Account:    "0xaccount",
		Amount:     num.NewUint(8500),
		LastUpdate: 1700000000,
	}

	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xtoken", "0xaccount")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Amount.EQ(b.Amount) {
		t.Errorf("Amount mismatch: got %s, want %s", got.Amount, b.Amount)
	}
}

func TestBalanceStore_SaveUpserts(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	b := &domain.AccumulativeTokenBalance{
		Token: "0xtoken", Account: "0xaccount", Amount: num.NewUint(100), LastUpdate: 1,
	}
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	b.Amount = num.NewUint(300)
	if err := store.Save(ctx, b); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xtoken", "0xaccount")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Amount.EQ(num.NewUint(300)) {
		t.Errorf("Upsert lost: got %s, want 300", got.Amount)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 row after upsert, got %d", store.Len())
	}
}

func TestBalanceStore_GetReturnsCopy(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	if err := store.Save(ctx, &domain.AccumulativeTokenBalance{
		Token: "0xtoken", Account: "0xaccount", Amount: num.NewUint(100), LastUpdate: 1,
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xtoken", "0xaccount")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Amount.Add(got.Amount, num.NewUint(900))

	again, err := store.Get(ctx, "0xtoken", "0xaccount")
	if err != nil {
		t.Fatalf("Second get failed: %v", err)
	}
	if !again.Amount.EQ(num.NewUint(100)) {
		t.Errorf("Caller mutation leaked into store: got %s, want 100", again.Amount)
	}
}

func TestBalanceStore_NotFound(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "0xtoken", "0xnobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBalanceStore_ListByToken(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	rows := []*domain.AccumulativeTokenBalance{
		{Token: "0xtoken", Account: "0xbbb", Amount: num.NewUint(2), LastUpdate: 1},
		{Token: "0xtoken", Account: "0xaaa", Amount: num.NewUint(1), LastUpdate: 1},
		{Token: "0xother", Account: "0xaaa", Amount: num.NewUint(9), LastUpdate: 1},
	}
	for _, b := range rows {
		if err := store.Save(ctx, b); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := store.ListByToken(ctx, "0xtoken")
	if err != nil {
		t.Fatalf("ListByToken failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0].Account != "0xaaa" || got[1].Account != "0xbbb" {
		t.Errorf("Wrong order: %s, %s", got[0].Account, got[1].Account)
	}
}

func TestBalanceStore_ConcurrentSaves(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = store.Save(ctx, &domain.AccumulativeTokenBalance{
				Token:      "0xtoken",
				Account:    string(rune('a' + id%26)),
				Amount:     num.NewUint(uint64(id)),
				LastUpdate: int64(id),
			})
		}(i)
	}
	wg.Wait()
}

func TestBalanceStore_InvalidInput(t *testing.T) {
	store := NewBalanceStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Save(ctx, &domain.AccumulativeTokenBalance{Token: "0xtoken", Account: "0xaccount"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil amount, got %v", err)
	}
}
