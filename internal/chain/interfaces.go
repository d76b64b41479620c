// Package chain declares the on-chain collaborator boundaries the
// attribution core calls out to. Implementations query contracts; the
// core only sees these interfaces plus their sentinel errors.
package chain

import (
	"context"
	"errors"

	"referral-attribution/internal/num"
)

// ZeroAddress is the EVM null account. A zero parent means an
// inconsistent registry; a zero grandparent means "fall back to the
// platform account".
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ErrNoRoute is returned by a Quoter when no swap path exists between
// the input token and the quote token. Callers treat it as zero volume,
// not as a failure.
var ErrNoRoute = errors.New("no route to quote token")

// Registry exposes the external referral registration contract.
// Registration is read-only here; it happens elsewhere.
type Registry interface {
	// IsRegistered reports whether the account holds a registration code.
	IsRegistered(ctx context.Context, account string) (bool, error)

	// ParentOf returns the account's registered parent, or ZeroAddress.
	ParentOf(ctx context.Context, account string) (string, error)

	// PlatformAccount returns the platform's root account.
	PlatformAccount(ctx context.Context) (string, error)
}

// FeeConfig exposes fee and share parameters plus the epoch schedule.
// All values are external configuration read from contracts, never
// derived internally.
type FeeConfig interface {
	// FeeRateBps returns the swap fee rate in basis points for the pair
	// kind (stable or volatile).
	FeeRateBps(ctx context.Context, stable bool) (uint64, error)

	// GrandparentShareBps returns the grandparent share of the reward
	// pool, denominated against Scale.
	GrandparentShareBps(ctx context.Context) (uint64, error)

	// PlatformShareBps returns the platform share of the reward pool,
	// denominated against Scale.
	PlatformShareBps(ctx context.Context) (uint64, error)

	// Scale returns the denominator for the share percentages.
	Scale(ctx context.Context) (uint64, error)

	// EpochStart returns the Unix timestamp the epoch schedule starts at.
	EpochStart(ctx context.Context) (int64, error)

	// EpochLength returns the epoch duration in seconds.
	EpochLength(ctx context.Context) (int64, error)
}

// Quoter prices an amount of one token in another along the best
// available swap route.
type Quoter interface {
	// UnitQuote returns how much quoteToken the given unitAmount of
	// tokenIn buys. Returns ErrNoRoute when no path exists.
	UnitQuote(ctx context.Context, tokenIn, quoteToken string, unitAmount *num.Uint) (*num.Uint, error)

	// TokenDecimals returns the token's decimal precision.
	TokenDecimals(ctx context.Context, token string) (uint8, error)
}

// PriceFeed exposes the quote-currency fiat price oracle.
type PriceFeed interface {
	// LatestQuotePrice returns the current quote-asset price and the
	// feed's decimal precision.
	LatestQuotePrice(ctx context.Context) (*num.Uint, uint8, error)
}
