package domain

import "referral-attribution/internal/num"

// SwapEvent is one already-decoded, already-ordered swap delivered by the
// ingestion side. The (TxHash, LogIndex) pair is the canonical identity
// used for deduplication before the event reaches the attributor.
type SwapEvent struct {
	TxHash      string    // transaction hash, lower-case hex
	LogIndex    uint32    // log index within the transaction
	BlockNumber int64     // block height, first ordering key
	Timestamp   int64     // block timestamp, Unix seconds
	Router      string    // emitting router/pair contract address
	TokenIn     string    // input token address
	Trader      string    // swap sender address
	AmountIn    *num.Uint // raw input amount in token units
	Stable      bool      // stable-pair flag, selects the fee rate
}
