package feed

import (
	"context"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/storage"
)

// Deduper answers whether an event was already attributed, keyed on
// (tx_hash, log_index). It consults the audit store so deduplication
// survives restarts, with a small in-process cache in front for events
// redelivered within one run.
type Deduper struct {
	audits storage.SwapAuditStore
	seen   map[string]struct{}
}

// NewDeduper creates a Deduper backed by the audit store.
func NewDeduper(audits storage.SwapAuditStore) *Deduper {
	return &Deduper{
		audits: audits,
		seen:   make(map[string]struct{}),
	}
}

func dedupeKey(ev *domain.SwapEvent) string {
	return fmt.Sprintf("%s|%d", ev.TxHash, ev.LogIndex)
}

// Seen reports whether the event was already processed. Not safe for
// concurrent use; the Runner calls it from its single dispatch loop.
func (d *Deduper) Seen(ctx context.Context, ev *domain.SwapEvent) (bool, error) {
	key := dedupeKey(ev)
	if _, ok := d.seen[key]; ok {
		return true, nil
	}

	has, err := d.audits.Has(ctx, ev.TxHash, ev.LogIndex)
	if err != nil {
		return false, fmt.Errorf("check audit key %s: %w", key, err)
	}
	if has {
		d.seen[key] = struct{}{}
	}
	return has, nil
}

// Mark records the event as processed in the in-process cache.
func (d *Deduper) Mark(ev *domain.SwapEvent) {
	d.seen[dedupeKey(ev)] = struct{}{}
}
