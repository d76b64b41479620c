package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referral-attribution/internal/storage"
)

// Generator produces reports from stored attribution state.
type Generator struct {
	balances storage.BalanceStore
	volumes  storage.GeneratedVolumeStore
	rounds   storage.LotteryRoundStore
	entries  storage.UserLotteryStore
	now      func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator.
func NewGenerator(
	balances storage.BalanceStore,
	volumes storage.GeneratedVolumeStore,
	rounds storage.LotteryRoundStore,
	entries storage.UserLotteryStore,
) *Generator {
	return &Generator{
		balances: balances,
		volumes:  volumes,
		rounds:   rounds,
		entries:  entries,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for one reward token. Rounds that have no
// stored state are skipped silently.
func (g *Generator) Generate(ctx context.Context, token string, roundIDs []int64) (*Report, error) {
	balances, err := g.generateBalances(ctx, token)
	if err != nil {
		return nil, err
	}

	volumes, err := g.generateVolumes(ctx)
	if err != nil {
		return nil, err
	}

	rounds, err := g.generateRounds(ctx, roundIDs)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: g.now(),
		RewardToken: token,
		Balances:    balances,
		Volumes:     volumes,
		Rounds:      rounds,
	}, nil
}

func (g *Generator) generateBalances(ctx context.Context, token string) ([]BalanceRow, error) {
	stored, err := g.balances.ListByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list balances for %s: %w", token, err)
	}

	rows := make([]BalanceRow, len(stored))
	for i, b := range stored {
		rows[i] = BalanceRow{
			Account:    b.Account,
			Amount:     b.Amount.String(),
			LastUpdate: b.LastUpdate,
		}
	}
	return rows, nil
}

func (g *Generator) generateVolumes(ctx context.Context) ([]VolumeRow, error) {
	stored, err := g.volumes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lifetime volumes: %w", err)
	}

	rows := make([]VolumeRow, len(stored))
	for i, v := range stored {
		rows[i] = VolumeRow{
			Account:       v.Account,
			Pair:          v.Pair,
			AsTrader:      v.AsTrader.String(),
			AsReferrer:    v.AsReferrer.String(),
			AsGrandparent: v.AsGrandparent.String(),
		}
	}
	return rows, nil
}

func (g *Generator) generateRounds(ctx context.Context, roundIDs []int64) ([]RoundSection, error) {
	var sections []RoundSection
	for _, id := range roundIDs {
		agg, err := g.rounds.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load lottery round %d: %w", id, err)
		}

		stored, err := g.entries.ListByRound(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list entries for round %d: %w", id, err)
		}

		entries := make([]EntryRow, len(stored))
		for i, e := range stored {
			entries[i] = EntryRow{User: e.User, Tickets: e.Tickets}
		}

		sections = append(sections, RoundSection{
			Round:        agg.Round,
			TotalTickets: agg.TotalTickets,
			Entries:      entries,
		})
	}
	return sections, nil
}
