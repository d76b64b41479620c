// Package stub provides deterministic in-memory implementations of the
// chain collaborator interfaces for tests and offline fixture runs.
package stub

import (
	"context"
	"strings"
	"sync"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
)

// Registry is a static referral registry keyed by lower-case address.
type Registry struct {
	mu       sync.RWMutex
	parents  map[string]string
	platform string
}

// NewRegistry creates a stub registry with the given platform account.
func NewRegistry(platform string) *Registry {
	return &Registry{
		parents:  make(map[string]string),
		platform: strings.ToLower(platform),
	}
}

// Register links user to parent. A user present in the map counts as
// registered even when its parent is the zero address, which lets tests
// exercise the inconsistent-registry drop path.
func (r *Registry) Register(user, parent string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parents[strings.ToLower(user)] = strings.ToLower(parent)
}

func (r *Registry) IsRegistered(_ context.Context, account string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.parents[strings.ToLower(account)]
	return ok, nil
}

func (r *Registry) ParentOf(_ context.Context, account string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parent, ok := r.parents[strings.ToLower(account)]
	if !ok {
		return chain.ZeroAddress, nil
	}
	return parent, nil
}

func (r *Registry) PlatformAccount(_ context.Context) (string, error) {
	return r.platform, nil
}

var _ chain.Registry = (*Registry)(nil)

// FeeConfig returns fixed fee/share parameters and epoch schedule.
type FeeConfig struct {
	StableFeeBps    uint64
	VolatileFeeBps  uint64
	GrandparentBps  uint64
	PlatformBps     uint64
	ShareScale      uint64
	EpochStartUnix  int64
	EpochLengthSecs int64
}

func (c *FeeConfig) FeeRateBps(_ context.Context, stable bool) (uint64, error) {
	if stable {
		return c.StableFeeBps, nil
	}
	return c.VolatileFeeBps, nil
}

func (c *FeeConfig) GrandparentShareBps(_ context.Context) (uint64, error) {
	return c.GrandparentBps, nil
}

func (c *FeeConfig) PlatformShareBps(_ context.Context) (uint64, error) {
	return c.PlatformBps, nil
}

func (c *FeeConfig) Scale(_ context.Context) (uint64, error) {
	return c.ShareScale, nil
}

func (c *FeeConfig) EpochStart(_ context.Context) (int64, error) {
	return c.EpochStartUnix, nil
}

func (c *FeeConfig) EpochLength(_ context.Context) (int64, error) {
	return c.EpochLengthSecs, nil
}

var _ chain.FeeConfig = (*FeeConfig)(nil)

// Quoter prices tokens with fixed per-token unit rates. Rate semantics:
// quote = amount * rate / rateScale.
type Quoter struct {
	mu        sync.RWMutex
	rates     map[string]*num.Uint // tokenIn -> rate
	rateScale *num.Uint
	decimals  map[string]uint8
}

// NewQuoter creates a stub quoter. rateScale must be non-zero.
func NewQuoter(rateScale *num.Uint) *Quoter {
	return &Quoter{
		rates:     make(map[string]*num.Uint),
		rateScale: rateScale.Clone(),
		decimals:  make(map[string]uint8),
	}
}

// SetRate fixes the tokenIn -> quoteToken conversion rate.
func (q *Quoter) SetRate(token string, rate *num.Uint) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rates[strings.ToLower(token)] = rate.Clone()
}

// SetDecimals fixes the token's decimal precision.
func (q *Quoter) SetDecimals(token string, decimals uint8) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.decimals[strings.ToLower(token)] = decimals
}

func (q *Quoter) UnitQuote(_ context.Context, tokenIn, _ string, unitAmount *num.Uint) (*num.Uint, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rate, ok := q.rates[strings.ToLower(tokenIn)]
	if !ok {
		return nil, chain.ErrNoRoute
	}
	out := num.UintZero().Mul(unitAmount, rate)
	return out.Div(out, q.rateScale), nil
}

func (q *Quoter) TokenDecimals(_ context.Context, token string) (uint8, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if d, ok := q.decimals[strings.ToLower(token)]; ok {
		return d, nil
	}
	return 18, nil
}

// QuoteHop prices one hop across a pair edge from the configured flat
// rates: out = amountIn * rate(tokenIn) / rate(tokenOut). Both endpoint
// tokens must have a rate; the quote token's own rate is normally set to
// the rate scale.
func (q *Quoter) QuoteHop(_ context.Context, edge *domain.PairEdge, tokenIn string, amountIn *num.Uint) (*num.Uint, error) {
	tokenOut := edge.Token1
	if strings.EqualFold(edge.Token1, tokenIn) {
		tokenOut = edge.Token0
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	rateIn, ok := q.rates[strings.ToLower(tokenIn)]
	if !ok {
		return nil, chain.ErrNoRoute
	}
	rateOut, ok := q.rates[strings.ToLower(tokenOut)]
	if !ok || rateOut.IsZero() {
		return nil, chain.ErrNoRoute
	}

	out := num.UintZero().Mul(amountIn, rateIn)
	return out.Div(out, rateOut), nil
}

var _ chain.Quoter = (*Quoter)(nil)

// PriceFeed returns a fixed quote-asset price.
type PriceFeed struct {
	Price    *num.Uint
	Decimals uint8
}

func (f *PriceFeed) LatestQuotePrice(_ context.Context) (*num.Uint, uint8, error) {
	return f.Price.Clone(), f.Decimals, nil
}

var _ chain.PriceFeed = (*PriceFeed)(nil)
