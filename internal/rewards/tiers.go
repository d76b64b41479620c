// Package rewards computes the fee-based reward pool for a swap and
// splits it between the parent, grandparent and platform accounts.
package rewards

import "referral-attribution/internal/num"

// BpsDenominator converts basis points into fractions.
const BpsDenominator = 10000

// Tier is one step of an ordered threshold table. MaxVolume is the
// inclusive upper bound; a nil MaxVolume marks the open-ended top tier.
type Tier struct {
	MaxVolume *num.Uint
	Bps       uint64
}

// TierTable is an ordered list of tiers, ascending by MaxVolume, ending
// with exactly one open-ended tier. The table is configuration, not code.
type TierTable []Tier

// Lookup returns the basis points for the first tier whose bound the
// volume does not exceed.
func (t TierTable) Lookup(volume *num.Uint) uint64 {
	for _, tier := range t {
		if tier.MaxVolume == nil || volume.LTE(tier.MaxVolume) {
			return tier.Bps
		}
	}
	// tables always terminate with an open-ended tier; an empty table
	// yields zero, which zeroes the reward rather than inventing one
	return 0
}

// e18 scales a whole-number fiat volume to the 1e18 fixed-point scale the
// ledger stores.
func e18(whole string) *num.Uint {
	v := num.MustUintFromString(whole)
	return v.Mul(v, num.UintTenToThe(18))
}

// DefaultRewardTiers is the production reward percentage schedule, keyed
// on the referrer's lifetime attributed volume.
func DefaultRewardTiers() TierTable {
	return TierTable{
		{MaxVolume: e18("30000"), Bps: 500},
		{MaxVolume: e18("150000"), Bps: 650},
		{MaxVolume: e18("1000000"), Bps: 800},
		{MaxVolume: e18("10000000"), Bps: 1000},
		{MaxVolume: nil, Bps: 1200},
	}
}
