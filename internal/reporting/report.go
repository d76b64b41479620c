// Package reporting builds operator-facing summaries of reward balances,
// generated volume and lottery standings.
package reporting

import "time"

// Report is the full summary for one reward token.
type Report struct {
	GeneratedAt time.Time
	RewardToken string

	Balances []BalanceRow
	Volumes  []VolumeRow
	Rounds   []RoundSection
}

// BalanceRow is one account's accrued reward balance. Amount is the raw
// integer token amount rendered as a decimal string.
type BalanceRow struct {
	Account    string
	Amount     string
	LastUpdate int64
}

// VolumeRow is one account's lifetime volume across the three roles.
type VolumeRow struct {
	Account       string
	Pair          string
	AsTrader      string
	AsReferrer    string
	AsGrandparent string
}

// RoundSection is one lottery round with its per-user entries.
type RoundSection struct {
	Round        int64
	TotalTickets int64
	Entries      []EntryRow
}

// EntryRow is one user's ticket count within a round.
type EntryRow struct {
	User    string
	Tickets int64
}
