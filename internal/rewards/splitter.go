package rewards

import (
	"context"
	"errors"
	"fmt"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/num"
)

// ErrZeroScale marks a share scale of zero read from configuration.
// Silently zeroing shares would under-credit rewards, so this is fatal
// for the event and must reach the operator.
var ErrZeroScale = errors.New("rewards: configured share scale is zero")

// Split is the exact three-way division of a reward pool.
// Parent + Grandparent + Platform == Reward always holds: the parent
// share is assigned by remainder, absorbing all truncation.
type Split struct {
	Reward      *num.Uint
	Parent      *num.Uint
	Grandparent *num.Uint
	Platform    *num.Uint
}

// Splitter computes reward splits using tiered percentages and the
// externally configured share parameters.
type Splitter struct {
	cfg   chain.FeeConfig
	tiers TierTable
}

// NewSplitter creates a Splitter with the given tier table.
func NewSplitter(cfg chain.FeeConfig, tiers TierTable) *Splitter {
	return &Splitter{cfg: cfg, tiers: tiers}
}

// FeeAmount returns amountIn * feeRateBps / 10000, truncated.
func FeeAmount(amountIn *num.Uint, feeRateBps uint64) *num.Uint {
	fee := num.UintZero().Mul(amountIn, num.NewUint(feeRateBps))
	return fee.Div(fee, num.NewUint(BpsDenominator))
}

// RewardPercentage returns the tiered basis points for the given
// referrer lifetime volume.
func (s *Splitter) RewardPercentage(volume *num.Uint) uint64 {
	return s.tiers.Lookup(volume)
}

// Split derives the reward pool from the fee and divides it.
//
//	reward      = feeAmount * tierBps / 10000
//	grandparent = reward * grandparentShareBps / scale
//	platform    = reward * platformShareBps / scale
//	parent      = reward - grandparent - platform
func (s *Splitter) Split(ctx context.Context, feeAmount, referrerLifetimeVolume *num.Uint) (*Split, error) {
	bps := s.tiers.Lookup(referrerLifetimeVolume)
	reward := num.UintZero().Mul(feeAmount, num.NewUint(bps))
	reward.Div(reward, num.NewUint(BpsDenominator))

	grandparentBps, err := s.cfg.GrandparentShareBps(ctx)
	if err != nil {
		return nil, fmt.Errorf("read grandparent share: %w", err)
	}
	platformBps, err := s.cfg.PlatformShareBps(ctx)
	if err != nil {
		return nil, fmt.Errorf("read platform share: %w", err)
	}
	scale, err := s.cfg.Scale(ctx)
	if err != nil {
		return nil, fmt.Errorf("read share scale: %w", err)
	}
	if scale == 0 {
		return nil, ErrZeroScale
	}

	scaleU := num.NewUint(scale)

	grandparent := num.UintZero().Mul(reward, num.NewUint(grandparentBps))
	grandparent.Div(grandparent, scaleU)

	platform := num.UintZero().Mul(reward, num.NewUint(platformBps))
	platform.Div(platform, scaleU)

	parent := reward.Clone()
	parent.Sub(parent, grandparent)
	parent.Sub(parent, platform)

	return &Split{
		Reward:      reward,
		Parent:      parent,
		Grandparent: grandparent,
		Platform:    platform,
	}, nil
}
