// Package feed delivers decoded swap events to the attribution pipeline
// in deterministic chain order. Sources produce events that may arrive
// out of order; the Runner buffers per block and releases finalized
// blocks sorted by (block_number, tx_hash, log_index), deduplicated on
// the (tx_hash, log_index) audit key.
package feed

import (
	"context"

	"referral-attribution/internal/domain"
)

// Source provides decoded swap events from an external feed.
type Source interface {
	// Subscribe returns a channel of swap events. Events may be
	// unordered; the Runner enforces deterministic ordering. The channel
	// is closed when the context is cancelled or the source is exhausted.
	Subscribe(ctx context.Context) (<-chan *domain.SwapEvent, error)
}
