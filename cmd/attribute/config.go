package main

import (
	"encoding/json"
	"fmt"
	"os"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/chain/stub"
	"referral-attribution/internal/num"
)

// chainConfig holds the collaborator parameters normally read from
// on-chain contracts: fee schedule, referral registrations, token rates
// and the quote-asset price. Loaded once at startup; the process must be
// restarted to pick up changes.
type chainConfig struct {
	Platform string `json:"platform"`

	StableFeeBps        uint64 `json:"stable_fee_bps"`
	VolatileFeeBps      uint64 `json:"volatile_fee_bps"`
	GrandparentShareBps uint64 `json:"grandparent_share_bps"`
	PlatformShareBps    uint64 `json:"platform_share_bps"`
	ShareScale          uint64 `json:"share_scale"`

	EpochStart  int64 `json:"epoch_start"`
	EpochLength int64 `json:"epoch_length"`

	QuoteToken string `json:"quote_token"`
	// RateScale divides token rates: quote = amount * rate / rate_scale.
	RateScale string            `json:"rate_scale"`
	Rates     map[string]string `json:"rates"`
	Decimals  map[string]uint8  `json:"decimals"`

	QuotePrice         string `json:"quote_price"`
	QuotePriceDecimals uint8  `json:"quote_price_decimals"`

	// Registrations maps trader -> parent. A trader mapped to the zero
	// address is registered but parentless, which the attributor drops.
	Registrations map[string]string `json:"registrations"`

	// Pairs lists the known pair edges. With --pair-graph they seed the
	// pair store and input tokens are priced along routes through them
	// instead of the flat rate table.
	Pairs []pairConfig `json:"pairs"`
}

type pairConfig struct {
	Pair   string `json:"pair"`
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
	Stable bool   `json:"stable"`
}

func loadChainConfig(path string) (*chainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chain config: %w", err)
	}

	var cfg chainConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse chain config: %w", err)
	}

	if cfg.Platform == "" {
		return nil, fmt.Errorf("chain config: platform account is required")
	}
	if cfg.QuoteToken == "" {
		return nil, fmt.Errorf("chain config: quote_token is required")
	}
	if cfg.ShareScale == 0 {
		return nil, fmt.Errorf("chain config: share_scale must be non-zero")
	}
	if cfg.EpochLength <= 0 {
		return nil, fmt.Errorf("chain config: epoch_length must be positive")
	}
	for i, p := range cfg.Pairs {
		if p.Pair == "" || p.Token0 == "" || p.Token1 == "" {
			return nil, fmt.Errorf("chain config: pairs[%d] needs pair, token0 and token1", i)
		}
	}
	return &cfg, nil
}

// build materializes the collaborator set from the config. The quoter is
// returned concrete so callers can also use it as a per-hop pricer.
func (c *chainConfig) build() (chain.Registry, chain.FeeConfig, *stub.Quoter, chain.PriceFeed, error) {
	registry := stub.NewRegistry(c.Platform)
	for user, parent := range c.Registrations {
		registry.Register(user, parent)
	}

	feeCfg := &stub.FeeConfig{
		StableFeeBps:    c.StableFeeBps,
		VolatileFeeBps:  c.VolatileFeeBps,
		GrandparentBps:  c.GrandparentShareBps,
		PlatformBps:     c.PlatformShareBps,
		ShareScale:      c.ShareScale,
		EpochStartUnix:  c.EpochStart,
		EpochLengthSecs: c.EpochLength,
	}

	rateScaleStr := c.RateScale
	if rateScaleStr == "" {
		rateScaleStr = "1000000000000000000"
	}
	rateScale, failed := num.UintFromString(rateScaleStr)
	if failed || rateScale.IsZero() {
		return nil, nil, nil, nil, fmt.Errorf("chain config: bad rate_scale %q", c.RateScale)
	}

	quoter := stub.NewQuoter(rateScale)
	for token, rateStr := range c.Rates {
		rate, failed := num.UintFromString(rateStr)
		if failed {
			return nil, nil, nil, nil, fmt.Errorf("chain config: bad rate %q for token %s", rateStr, token)
		}
		quoter.SetRate(token, rate)
	}
	for token, decimals := range c.Decimals {
		quoter.SetDecimals(token, decimals)
	}

	priceStr := c.QuotePrice
	if priceStr == "" {
		priceStr = "100000000" // 1.0 at 8 feed decimals
	}
	price, failed := num.UintFromString(priceStr)
	if failed {
		return nil, nil, nil, nil, fmt.Errorf("chain config: bad quote_price %q", c.QuotePrice)
	}
	priceDecimals := c.QuotePriceDecimals
	if priceDecimals == 0 {
		priceDecimals = 8
	}
	feed := &stub.PriceFeed{Price: price, Decimals: priceDecimals}

	return registry, feeCfg, quoter, feed, nil
}
