package lottery

import (
	"context"
	"testing"

	"referral-attribution/internal/storage"
	"referral-attribution/internal/storage/memory"
)

const user = "0x0000000000000000000000000000000000000001"

func newTestAssigner(policy Policy) (*Assigner, *memory.LotteryRoundStore, *memory.UserLotteryStore) {
	rounds := memory.NewLotteryRoundStore()
	entries := memory.NewUserLotteryStore()
	return NewAssigner(rounds, entries, DefaultTicketTiers(), policy), rounds, entries
}

// checkAggregateInvariant asserts round.TotalTickets == sum of entries.
func checkAggregateInvariant(t *testing.T, rounds *memory.LotteryRoundStore, entries *memory.UserLotteryStore, round int64) {
	t.Helper()
	ctx := context.Background()

	agg, err := rounds.Get(ctx, round)
	if err == storage.ErrNotFound {
		agg = nil
	} else if err != nil {
		t.Fatalf("get round: %v", err)
	}

	list, err := entries.ListByRound(ctx, round)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}

	var sum int64
	for _, e := range list {
		sum += e.Tickets
	}

	var total int64
	if agg != nil {
		total = agg.TotalTickets
	}
	if total != sum {
		t.Errorf("aggregate invariant broken: round total %d != entry sum %d", total, sum)
	}
}

func TestTicketTiers(t *testing.T) {
	tiers := DefaultTicketTiers()

	cases := []struct {
		volume string // whole fiat units, scaled by e18 below
		want   int64
	}{
		{"0", 0},
		{"300", 0}, // inclusive bound
		{"301", 2},
		{"3000", 2},
		{"3001", 5},
		{"30000", 5},
		{"150000", 10},
		{"150001", 15},
	}
	for _, tc := range cases {
		if got := tiers.Lookup(e18(tc.volume)); got != tc.want {
			t.Errorf("volume %s: expected %d tickets, got %d", tc.volume, tc.want, got)
		}
	}
}

func TestBinaryTicketTable(t *testing.T) {
	table := BinaryTicketTable(e18("500"))

	if got := table.Lookup(e18("500")); got != 0 {
		t.Errorf("at threshold: expected 0, got %d", got)
	}
	if got := table.Lookup(e18("501")); got != 1 {
		t.Errorf("above threshold: expected 1, got %d", got)
	}
}

func TestApply_HighWaterMark(t *testing.T) {
	a, rounds, entries := newTestAssigner(PolicyHighWaterMark)
	ctx := context.Background()

	// volume 400 -> 2 tickets
	if err := a.Apply(ctx, 7, user, e18("400")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	checkAggregateInvariant(t, rounds, entries, 7)

	entry, err := entries.Get(ctx, 7, user)
	if err != nil {
		t.Fatalf("entry missing: %v", err)
	}
	if entry.Tickets != 2 {
		t.Errorf("expected 2 tickets, got %d", entry.Tickets)
	}

	// same tier again: no change
	if err := a.Apply(ctx, 7, user, e18("500")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	entry, _ = entries.Get(ctx, 7, user)
	if entry.Tickets != 2 {
		t.Errorf("high-water-mark must not move on equal count, got %d", entry.Tickets)
	}
	checkAggregateInvariant(t, rounds, entries, 7)

	// volume crosses into 5-ticket tier: only the difference reaches the
	// aggregate
	if err := a.Apply(ctx, 7, user, e18("4000")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	entry, _ = entries.Get(ctx, 7, user)
	if entry.Tickets != 5 {
		t.Errorf("expected 5 tickets, got %d", entry.Tickets)
	}
	agg, _ := rounds.Get(ctx, 7)
	if agg.TotalTickets != 5 {
		t.Errorf("expected round total 5, got %d", agg.TotalTickets)
	}
	checkAggregateInvariant(t, rounds, entries, 7)
}

func TestApply_Additive(t *testing.T) {
	a, rounds, entries := newTestAssigner(PolicyAdditive)
	ctx := context.Background()

	if err := a.Apply(ctx, 3, user, e18("400")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := a.Apply(ctx, 3, user, e18("400")); err != nil {
		t.Fatalf("apply: %v", err)
	}

	entry, err := entries.Get(ctx, 3, user)
	if err != nil {
		t.Fatalf("entry missing: %v", err)
	}
	if entry.Tickets != 4 {
		t.Errorf("additive: expected 4 tickets after two applies, got %d", entry.Tickets)
	}
	checkAggregateInvariant(t, rounds, entries, 3)
}

func TestApply_ZeroTicketsWritesNothing(t *testing.T) {
	a, rounds, entries := newTestAssigner(PolicyHighWaterMark)
	ctx := context.Background()

	if err := a.Apply(ctx, 1, user, e18("100")); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if rounds.Len() != 0 {
		t.Error("zero-ticket apply must not create a round row")
	}
	if _, err := entries.Get(ctx, 1, user); err != storage.ErrNotFound {
		t.Errorf("zero-ticket apply must not create an entry, got %v", err)
	}
}

func TestApply_MultipleUsersAggregate(t *testing.T) {
	a, rounds, entries := newTestAssigner(PolicyHighWaterMark)
	ctx := context.Background()
	user2 := "0x0000000000000000000000000000000000000002"

	if err := a.Apply(ctx, 9, user, e18("4000")); err != nil { // 5
		t.Fatalf("apply: %v", err)
	}
	if err := a.Apply(ctx, 9, user2, e18("400")); err != nil { // 2
		t.Fatalf("apply: %v", err)
	}

	agg, err := rounds.Get(ctx, 9)
	if err != nil {
		t.Fatalf("round missing: %v", err)
	}
	if agg.TotalTickets != 7 {
		t.Errorf("expected round total 7, got %d", agg.TotalTickets)
	}
	checkAggregateInvariant(t, rounds, entries, 9)
}
