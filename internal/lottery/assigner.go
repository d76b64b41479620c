// Package lottery converts round-to-date trading volume into lottery
// tickets and maintains per-round ticket state.
package lottery

import (
	"context"
	"errors"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/observability"
	"referral-attribution/internal/storage"
)

// Policy selects how a recomputed ticket count is folded into the stored
// per-round state. The two policies are incompatible; an Assigner runs
// exactly one for its whole lifetime.
type Policy int

const (
	// PolicyHighWaterMark replaces the stored count only when the new
	// count is strictly greater, adding the difference to the round
	// aggregate.
	PolicyHighWaterMark Policy = iota
	// PolicyAdditive adds the full recomputed count on every event, to
	// both the entry and the round aggregate.
	PolicyAdditive
)

// TicketTier is one step of the ticket table. MaxVolume is the inclusive
// upper bound; nil marks the open-ended top tier.
type TicketTier struct {
	MaxVolume *num.Uint
	Tickets   int64
}

// TicketTable is an ordered list of ticket tiers, ascending by MaxVolume.
// The table is configuration: deployments swap in different schedules,
// down to a single-threshold binary table.
type TicketTable []TicketTier

// Lookup returns the ticket count for the first tier whose bound the
// volume does not exceed.
func (t TicketTable) Lookup(volume *num.Uint) int64 {
	for _, tier := range t {
		if tier.MaxVolume == nil || volume.LTE(tier.MaxVolume) {
			return tier.Tickets
		}
	}
	return 0
}

func e18(whole string) *num.Uint {
	v := num.MustUintFromString(whole)
	return v.Mul(v, num.UintTenToThe(18))
}

// DefaultTicketTiers is the production ticket schedule keyed on
// round-to-date trader volume.
func DefaultTicketTiers() TicketTable {
	return TicketTable{
		{MaxVolume: e18("300"), Tickets: 0},
		{MaxVolume: e18("3000"), Tickets: 2},
		{MaxVolume: e18("30000"), Tickets: 5},
		{MaxVolume: e18("150000"), Tickets: 10},
		{MaxVolume: nil, Tickets: 15},
	}
}

// BinaryTicketTable is the single-threshold variant: one ticket above
// the threshold, none at or below it.
func BinaryTicketTable(threshold *num.Uint) TicketTable {
	return TicketTable{
		{MaxVolume: threshold.Clone(), Tickets: 0},
		{MaxVolume: nil, Tickets: 1},
	}
}

// Assigner applies ticket updates for lottery rounds. Under either
// policy it preserves the aggregate invariant: a round's TotalTickets
// always equals the sum of its entries' tickets.
type Assigner struct {
	rounds  storage.LotteryRoundStore
	entries storage.UserLotteryStore
	tiers   TicketTable
	policy  Policy
}

// NewAssigner creates an Assigner with the given table and policy.
func NewAssigner(rounds storage.LotteryRoundStore, entries storage.UserLotteryStore, tiers TicketTable, policy Policy) *Assigner {
	return &Assigner{
		rounds:  rounds,
		entries: entries,
		tiers:   tiers,
		policy:  policy,
	}
}

// TicketsFor returns the ticket count the table assigns to the volume.
func (a *Assigner) TicketsFor(volume *num.Uint) int64 {
	return a.tiers.Lookup(volume)
}

// Apply folds the user's current round-to-date volume into the round's
// ticket state.
func (a *Assigner) Apply(ctx context.Context, round int64, user string, roundVolume *num.Uint) error {
	computed := a.tiers.Lookup(roundVolume)

	entry, err := a.loadEntry(ctx, round, user)
	if err != nil {
		return err
	}
	agg, err := a.loadRound(ctx, round)
	if err != nil {
		return err
	}

	var delta int64
	switch a.policy {
	case PolicyHighWaterMark:
		if computed <= entry.Tickets {
			return nil
		}
		delta = computed - entry.Tickets
		entry.Tickets = computed
	case PolicyAdditive:
		if computed == 0 {
			return nil
		}
		delta = computed
		entry.Tickets += computed
	default:
		return fmt.Errorf("lottery: unknown policy %d", a.policy)
	}

	agg.TotalTickets += delta

	if err := a.entries.Save(ctx, entry); err != nil {
		return fmt.Errorf("save lottery entry: %w", err)
	}
	if err := a.rounds.Save(ctx, agg); err != nil {
		return fmt.Errorf("save lottery round: %w", err)
	}
	observability.RecordTicketsAwarded(delta)
	return nil
}

func (a *Assigner) loadEntry(ctx context.Context, round int64, user string) (*domain.UserLotteryEntry, error) {
	entry, err := a.entries.Get(ctx, round, user)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.UserLotteryEntry{Round: round, User: user}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load lottery entry: %w", err)
	}
	return entry, nil
}

func (a *Assigner) loadRound(ctx context.Context, round int64) (*domain.LotteryRound, error) {
	agg, err := a.rounds.Get(ctx, round)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.LotteryRound{Round: round}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load lottery round: %w", err)
	}
	return agg, nil
}
