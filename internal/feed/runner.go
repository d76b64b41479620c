package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"referral-attribution/internal/attribution"
	"referral-attribution/internal/domain"
	"referral-attribution/internal/observability"
)

// Processor consumes ordered, deduplicated swap events.
type Processor interface {
	Process(ctx context.Context, ev *domain.SwapEvent) (*attribution.Outcome, error)
}

// Runner pulls events from a Source and dispatches them to the
// attribution pipeline in deterministic chain order.
//
// Live feeds deliver events from concurrent block notifications slightly
// out of order, so the Runner buffers per block and only releases a
// block once the feed has moved blockLagWindow blocks past it. Within a
// block, events are sorted by (tx_hash, log_index). A flush ticker
// releases finalized blocks even when the feed goes quiet.
type Runner struct {
	source    Source
	processor Processor
	deduper   *Deduper
	log       *zap.Logger

	blockLagWindow int64
	flushInterval  time.Duration

	buffer       map[int64][]*domain.SwapEvent
	highestBlock int64

	stats RunStats
}

// RunStats counts what a run did.
type RunStats struct {
	Processed  int64
	Dropped    int64
	Duplicates int64
	Malformed  int64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source    Source
	Processor Processor
	Deduper   *Deduper
	Logger    *zap.Logger

	// BlockLagWindow is how many blocks behind the tip a block must be
	// before its events are released. Default: 3.
	BlockLagWindow int64
	// FlushInterval forces buffered finalized blocks out periodically.
	// Default: 5s.
	FlushInterval time.Duration
}

// NewRunner creates a feed runner.
func NewRunner(opts RunnerOptions) *Runner {
	lag := opts.BlockLagWindow
	if lag == 0 {
		lag = 3
	}

	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		source:         opts.Source,
		processor:      opts.Processor,
		deduper:        opts.Deduper,
		log:            log,
		blockLagWindow: lag,
		flushInterval:  flushInterval,
		buffer:         make(map[int64][]*domain.SwapEvent),
	}
}

// Stats returns counters accumulated so far. Call after Run returns.
func (r *Runner) Stats() RunStats {
	return r.stats
}

// Run consumes the source until the context ends or the source channel
// closes. On a closed channel all buffered events are flushed and Run
// returns nil; ordering no longer matters because nothing follows.
func (r *Runner) Run(ctx context.Context) error {
	eventsCh, err := r.source.Subscribe(ctx)
	if err != nil {
		return err
	}

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	r.log.Info("feed runner started",
		zap.Int64("block_lag_window", r.blockLagWindow),
		zap.Duration("flush_interval", r.flushInterval))

	for {
		select {
		case <-ctx.Done():
			r.flushAll(ctx)
			r.log.Info("feed runner stopping")
			return ctx.Err()

		case ev, ok := <-eventsCh:
			if !ok {
				r.flushAll(ctx)
				r.log.Info("feed exhausted",
					zap.Int64("processed", r.stats.Processed),
					zap.Int64("dropped", r.stats.Dropped),
					zap.Int64("duplicates", r.stats.Duplicates))
				return nil
			}
			if err := r.bufferEvent(ctx, ev); err != nil {
				return err
			}

		case <-flushTicker.C:
			// Releases finalized blocks even when the tip stalls; blocks
			// inside the lag window stay buffered.
			if err := r.processFinalizedBlocks(ctx); err != nil {
				return err
			}
		}
	}
}

// bufferEvent adds the event to the per-block buffer and releases any
// blocks the tip has moved past.
func (r *Runner) bufferEvent(ctx context.Context, ev *domain.SwapEvent) error {
	block := ev.BlockNumber
	r.buffer[block] = append(r.buffer[block], ev)

	if block > r.highestBlock {
		r.highestBlock = block
		observability.UpdateHighestBlock(block)
		return r.processFinalizedBlocks(ctx)
	}
	if block <= r.highestBlock-r.blockLagWindow {
		// Late event for an already-finalized block: release immediately
		return r.processBlock(ctx, block)
	}
	return nil
}

// processFinalizedBlocks releases every buffered block at or below the
// finalization horizon, lowest first.
func (r *Runner) processFinalizedBlocks(ctx context.Context) error {
	finalized := r.highestBlock - r.blockLagWindow
	if finalized < 0 {
		return nil
	}

	var blocks []int64
	for block := range r.buffer {
		if block <= finalized {
			blocks = append(blocks, block)
		}
	}
	sortInt64s(blocks)

	for _, block := range blocks {
		if err := r.processBlock(ctx, block); err != nil {
			return err
		}
	}
	return nil
}

// processBlock dispatches one block's events in (tx_hash, log_index)
// order.
func (r *Runner) processBlock(ctx context.Context, block int64) error {
	events, ok := r.buffer[block]
	if !ok || len(events) == 0 {
		return nil
	}
	SortEvents(events)
	delete(r.buffer, block)
	observability.UpdateBufferSize(len(r.buffer))

	for _, ev := range events {
		if err := r.dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// flushAll releases every buffered block on shutdown. Errors are logged,
// not returned: shutdown flush is best effort.
func (r *Runner) flushAll(ctx context.Context) {
	var blocks []int64
	for block := range r.buffer {
		blocks = append(blocks, block)
	}
	sortInt64s(blocks)

	for _, block := range blocks {
		if err := r.processBlock(ctx, block); err != nil {
			r.log.Warn("flush failed", zap.Int64("block", block), zap.Error(err))
			return
		}
	}
}

// dispatch runs one event through dedupe and the processor.
func (r *Runner) dispatch(ctx context.Context, ev *domain.SwapEvent) error {
	if r.deduper != nil {
		seen, err := r.deduper.Seen(ctx, ev)
		if err != nil {
			return err
		}
		if seen {
			r.stats.Duplicates++
			observability.RecordDuplicateDelivery()
			return nil
		}
	}

	start := time.Now()
	out, err := r.processor.Process(ctx, ev)
	observability.DefaultMetrics.AttributionLatency.Observe(time.Since(start).Seconds())
	if errors.Is(err, attribution.ErrInvalidEvent) {
		r.stats.Malformed++
		observability.RecordMalformedFrame()
		r.log.Warn("skipping invalid event",
			zap.String("tx", ev.TxHash),
			zap.Uint32("log_index", ev.LogIndex))
		return nil
	}
	if err != nil {
		return err
	}

	if out.Dropped {
		r.stats.Dropped++
		observability.RecordSwapDropped(out.DropReason)
	} else {
		r.stats.Processed++
		observability.RecordSwapAttributed(time.Now().Unix())
	}
	if r.deduper != nil {
		r.deduper.Mark(ev)
	}
	return nil
}

// sortInt64s sorts a slice of int64 in ascending order.
func sortInt64s(s []int64) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
