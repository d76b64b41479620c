package quote

import (
	"context"
	"testing"

	"referral-attribution/internal/chain/stub"
	"referral-attribution/internal/num"
)

const (
	quoteToken    = "0x00000000000000000000000000000000000000q1"
	volatileToken = "0x00000000000000000000000000000000000000t1"
)

func newTestConverter(quoter *stub.Quoter, priceE8 uint64) *Converter {
	feed := &stub.PriceFeed{Price: num.NewUint(priceE8), Decimals: 8}
	return NewConverter(quoter, feed, quoteToken)
}

func TestToFiatVolume_QuoteTokenIdentity(t *testing.T) {
	quoter := stub.NewQuoter(num.NewUint(1))
	// price = 300.00000000 fiat per quote token
	c := newTestConverter(quoter, 30000000000)

	amountIn := num.NewUint(1_000_000_000)
	conv, err := c.ToFiatVolume(context.Background(), quoteToken, amountIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !conv.VolumeInQuote.EQ(amountIn) {
		t.Errorf("identity conversion must be exact: got %s", conv.VolumeInQuote)
	}
	// 1e9 * 3e10 / 1e8 = 3e11
	if conv.VolumeInFiat.String() != "300000000000" {
		t.Errorf("fiat volume mismatch: %s", conv.VolumeInFiat)
	}
	if conv.QuotePrice.Uint64() != 30000000000 {
		t.Errorf("quote price mismatch: %s", conv.QuotePrice)
	}
}

func TestToFiatVolume_UnitQuoteScaling(t *testing.T) {
	// 1 token = 2 quote tokens at every size (rate 2, scale 1)
	quoter := stub.NewQuoter(num.NewUint(1))
	quoter.SetRate(volatileToken, num.NewUint(2))
	quoter.SetDecimals(volatileToken, 18)
	c := newTestConverter(quoter, 100000000) // price 1.0

	amountIn := num.MustUintFromString("5000000000000000000") // 5e18
	conv, err := c.ToFiatVolume(context.Background(), volatileToken, amountIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// unit = 10^14, unitQuote = 2*10^14, volume = 2*10^14 * 5*10^18 / 10^14 = 1e19
	if conv.VolumeInQuote.String() != "10000000000000000000" {
		t.Errorf("quote volume mismatch: %s", conv.VolumeInQuote)
	}
}

func TestToFiatVolume_TruncationIsFloor(t *testing.T) {
	quoter := stub.NewQuoter(num.NewUint(1))
	quoter.SetRate(volatileToken, num.NewUint(1))
	quoter.SetDecimals(volatileToken, 6) // unit = 10^2
	c := newTestConverter(quoter, 100000000)

	// amountIn = 199: unitQuote = 100, 100*199/100 = 199 exactly; but with
	// rate 3 the product floors: unitQuote=300, 300*199/100 = 597
	quoter.SetRate(volatileToken, num.NewUint(3))
	conv, err := c.ToFiatVolume(context.Background(), volatileToken, num.NewUint(199))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.VolumeInQuote.Uint64() != 597 {
		t.Errorf("expected truncated 597, got %s", conv.VolumeInQuote)
	}
}

func TestToFiatVolume_NoRouteIsZeroVolume(t *testing.T) {
	quoter := stub.NewQuoter(num.NewUint(1))
	quoter.SetDecimals(volatileToken, 18)
	// no rate registered: UnitQuote returns ErrNoRoute
	c := newTestConverter(quoter, 30000000000)

	conv, err := c.ToFiatVolume(context.Background(), volatileToken, num.NewUint(1_000_000))
	if err != nil {
		t.Fatalf("no route must not be an error: %v", err)
	}
	if !conv.VolumeInQuote.IsZero() {
		t.Errorf("expected zero quote volume, got %s", conv.VolumeInQuote)
	}
	if !conv.VolumeInFiat.IsZero() {
		t.Errorf("expected zero fiat volume, got %s", conv.VolumeInFiat)
	}
}

func TestReferenceUnit_LowDecimalClamp(t *testing.T) {
	if got := referenceUnit(18); got.String() != "100000000000000" {
		t.Errorf("18 decimals: expected 10^14, got %s", got)
	}
	if got := referenceUnit(4); got.Uint64() != 1 {
		t.Errorf("4 decimals: expected 1, got %s", got)
	}
	if got := referenceUnit(2); got.Uint64() != 1 {
		t.Errorf("2 decimals: expected clamp to 1, got %s", got)
	}
}
