package domain

import "referral-attribution/internal/num"

// ReferralEdge links a trader to the referrer it was first attributed
// under. Created once on the trader's first processed swap and never
// overwritten, even if the registry later resolves a different parent.
type ReferralEdge struct {
	User      string // trader address
	Referrer  string // parent address at creation time
	CreatedAt int64  // Unix seconds of the creating event
}

// AccumulativeTokenBalance is the reward balance accrued to an account in
// a given token. Amount only ever grows; payout/settlement happens
// elsewhere.
type AccumulativeTokenBalance struct {
	Token      string
	Account    string
	Amount     *num.Uint
	LastUpdate int64
}

// GeneratedVolume holds an account's lifetime fiat-equivalent volume in
// each of the three attribution roles. Pair is empty in global-granularity
// mode and the emitting contract address in per-pair mode.
type GeneratedVolume struct {
	Account       string
	Pair          string
	AsTrader      *num.Uint
	AsReferrer    *num.Uint
	AsGrandparent *num.Uint
	LastUpdate    int64
}

// EpochVolume is the per-epoch slice of GeneratedVolume. One row per
// (account, epoch[, pair]), created lazily on first attribution.
type EpochVolume struct {
	Account       string
	Pair          string
	Epoch         int64
	AsTrader      *num.Uint
	AsReferrer    *num.Uint
	AsGrandparent *num.Uint
	LastUpdate    int64
}

// DailyVolume is the per-day slice of GeneratedVolume, bucketed by
// timestamp / 86400.
type DailyVolume struct {
	Account       string
	Pair          string
	Day           int64
	AsTrader      *num.Uint
	AsReferrer    *num.Uint
	AsGrandparent *num.Uint
	LastUpdate    int64
}

// VolumeSnapshot is an append-style copy of an account's lifetime totals
// taken after each attributed event, keyed by (account, timestamp).
type VolumeSnapshot struct {
	Account       string
	Timestamp     int64
	AsTrader      *num.Uint
	AsReferrer    *num.Uint
	AsGrandparent *num.Uint
}

// LotteryRound aggregates ticket counts for one competition round. The
// round index is derived from the event timestamp with the same epoch
// function used for epoch volume.
type LotteryRound struct {
	Round        int64
	TotalTickets int64
}

// UserLotteryEntry is one user's ticket count within a round.
// Invariant kept by the assigner: the round's TotalTickets equals the sum
// of its entries' Tickets after every event.
type UserLotteryEntry struct {
	Round   int64
	User    string
	Tickets int64
}

// SwapAuditRecord is the immutable audit trail of one attributed swap,
// capturing the raw inputs and every derived quantity. Keyed by
// (TxHash, LogIndex); never mutated after insertion.
type SwapAuditRecord struct {
	TxHash        string
	LogIndex      uint32
	Trader        string
	Parent        string
	Grandparent   string
	TokenIn       string
	AmountIn      *num.Uint
	Stable        bool
	Round         int64
	VolumeInQuote *num.Uint
	QuotePrice    *num.Uint
	VolumeInFiat  *num.Uint
	Timestamp     int64
}

// PairEdge is one edge of the pair graph used for multi-hop quote
// routing: the pair contract connecting Token0 and Token1.
type PairEdge struct {
	Pair   string
	Token0 string
	Token1 string
	Stable bool
}
