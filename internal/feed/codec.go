package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
)

// ErrMalformedEvent is returned when a wire frame cannot be decoded into
// a swap event.
var ErrMalformedEvent = errors.New("malformed swap event frame")

// wireEvent is the JSON frame both the websocket feed and fixture files
// carry. AmountIn travels as a decimal string to survive 256-bit values.
type wireEvent struct {
	TxHash      string `json:"tx_hash"`
	LogIndex    uint32 `json:"log_index"`
	BlockNumber int64  `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
	Router      string `json:"router"`
	TokenIn     string `json:"token_in"`
	Trader      string `json:"trader"`
	AmountIn    string `json:"amount_in"`
	Stable      bool   `json:"stable"`
}

// decodeEvent parses one wire frame into a domain event.
func decodeEvent(data []byte) (*domain.SwapEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if w.TxHash == "" || w.Trader == "" || w.TokenIn == "" {
		return nil, fmt.Errorf("%w: missing identity fields", ErrMalformedEvent)
	}

	amount, failed := num.UintFromString(w.AmountIn)
	if failed {
		return nil, fmt.Errorf("%w: amount_in %q", ErrMalformedEvent, w.AmountIn)
	}

	return &domain.SwapEvent{
		TxHash:      w.TxHash,
		LogIndex:    w.LogIndex,
		BlockNumber: w.BlockNumber,
		Timestamp:   w.Timestamp,
		Router:      w.Router,
		TokenIn:     w.TokenIn,
		Trader:      w.Trader,
		AmountIn:    amount,
		Stable:      w.Stable,
	}, nil
}

// encodeEvent renders a domain event as one wire frame. Used by fixture
// writers and tests.
func encodeEvent(ev *domain.SwapEvent) ([]byte, error) {
	return json.Marshal(wireEvent{
		TxHash:      ev.TxHash,
		LogIndex:    ev.LogIndex,
		BlockNumber: ev.BlockNumber,
		Timestamp:   ev.Timestamp,
		Router:      ev.Router,
		TokenIn:     ev.TokenIn,
		Trader:      ev.Trader,
		AmountIn:    ev.AmountIn.String(),
		Stable:      ev.Stable,
	})
}
