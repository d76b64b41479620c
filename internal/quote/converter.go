// Package quote converts raw token amounts into quote-currency and
// fiat-equivalent volume, and finds multi-hop routes through the pair
// graph when no direct quote exists.
package quote

import (
	"context"
	"errors"
	"fmt"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/num"
)

// unitPrecisionOffset is subtracted from a token's decimals to derive the
// reference unit used for per-unit quoting: unit = 10^(decimals-4). The
// unit quote is then scaled linearly to the full amount, a deliberate
// constant-marginal-price approximation whose truncation behavior is part
// of the contract.
const unitPrecisionOffset = 4

// ErrZeroFeedDecimalsDenominator marks a price feed returning a
// configuration that would divide by zero. Fatal for the event.
var ErrZeroFeedDecimalsDenominator = errors.New("quote: price feed denominator is zero")

// Conversion is the result of converting a swap amount.
type Conversion struct {
	// VolumeInQuote is the amount expressed in the quote token. Zero when
	// no route exists.
	VolumeInQuote *num.Uint
	// QuotePrice is the fiat price of the quote token at conversion time.
	QuotePrice *num.Uint
	// VolumeInFiat is QuotePrice * VolumeInQuote / 10^feedDecimals,
	// truncated.
	VolumeInFiat *num.Uint
}

// Converter turns token amounts into quote and fiat volume.
type Converter struct {
	quoter     chain.Quoter
	feed       chain.PriceFeed
	quoteToken string
}

// NewConverter creates a Converter quoting against quoteToken.
func NewConverter(quoter chain.Quoter, feed chain.PriceFeed, quoteToken string) *Converter {
	return &Converter{
		quoter:     quoter,
		feed:       feed,
		quoteToken: quoteToken,
	}
}

// ToFiatVolume converts amountIn of token into quote and fiat volume.
//
// The quote-token identity case is exact. Everything else goes through a
// per-unit quote scaled by amountIn/unit with integer truncation. A
// missing route yields zero volume, not an error.
func (c *Converter) ToFiatVolume(ctx context.Context, token string, amountIn *num.Uint) (*Conversion, error) {
	volumeInQuote, err := c.quoteVolume(ctx, token, amountIn)
	if err != nil {
		return nil, err
	}

	price, feedDecimals, err := c.feed.LatestQuotePrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("read quote price feed: %w", err)
	}

	denom := num.UintTenToThe(feedDecimals)
	if denom.IsZero() {
		return nil, ErrZeroFeedDecimalsDenominator
	}

	volumeInFiat := num.UintZero().Mul(price, volumeInQuote)
	volumeInFiat.Div(volumeInFiat, denom)

	return &Conversion{
		VolumeInQuote: volumeInQuote,
		QuotePrice:    price,
		VolumeInFiat:  volumeInFiat,
	}, nil
}

func (c *Converter) quoteVolume(ctx context.Context, token string, amountIn *num.Uint) (*num.Uint, error) {
	if token == c.quoteToken {
		return amountIn.Clone(), nil
	}

	decimals, err := c.quoter.TokenDecimals(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("read decimals of %s: %w", token, err)
	}

	unit := referenceUnit(decimals)
	unitQuote, err := c.quoter.UnitQuote(ctx, token, c.quoteToken, unit)
	if err != nil {
		if errors.Is(err, chain.ErrNoRoute) {
			return num.UintZero(), nil
		}
		return nil, fmt.Errorf("quote unit of %s: %w", token, err)
	}

	// unitQuote * amountIn / unit, truncating
	out := num.UintZero().Mul(unitQuote, amountIn)
	return out.Div(out, unit), nil
}

// referenceUnit returns 10^(decimals-4), clamped at 10^0 for low-decimal
// tokens so the unit never rounds to zero.
func referenceUnit(decimals uint8) *num.Uint {
	if decimals <= unitPrecisionOffset {
		return num.NewUint(1)
	}
	return num.UintTenToThe(decimals - unitPrecisionOffset)
}
