// Package attribution drives the per-event pipeline: resolve the
// referral chain, convert volume, update the ledgers, split rewards,
// assign lottery tickets and append the audit record.
package attribution

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"referral-attribution/internal/chain"
	"referral-attribution/internal/domain"
	"referral-attribution/internal/ledger"
	"referral-attribution/internal/lottery"
	"referral-attribution/internal/num"
	"referral-attribution/internal/observability"
	"referral-attribution/internal/quote"
	"referral-attribution/internal/referral"
	"referral-attribution/internal/rewards"
	"referral-attribution/internal/storage"
)

// ErrInvalidEvent is returned for events missing mandatory fields.
var ErrInvalidEvent = errors.New("attribution: invalid swap event")

// Drop reasons surfaced in Outcome for diagnostics.
const (
	DropUnregisteredTrader = "unregistered trader"
	DropMissingParent      = "registered trader has no parent"
)

// Outcome summarizes what processing one event did.
type Outcome struct {
	Dropped    bool
	DropReason string

	Parent       string
	Grandparent  string
	Round        int64
	VolumeInFiat *num.Uint
	Reward       *rewards.Split
}

// Attributor processes decoded swap events one at a time, in delivery
// order. It performs no deduplication: the driver must filter replays by
// the audit key before calling Process.
type Attributor struct {
	resolver  *referral.Resolver
	converter *quote.Converter
	splitter  *rewards.Splitter
	ledger    *ledger.Ledger
	assigner  *lottery.Assigner

	registry chain.Registry
	feeCfg   chain.FeeConfig

	edges    storage.ReferralEdgeStore
	balances storage.BalanceStore
	audits   storage.SwapAuditStore

	log *zap.Logger
}

// Options collects the collaborators an Attributor needs. All fields are
// required except Logger.
type Options struct {
	Resolver  *referral.Resolver
	Converter *quote.Converter
	Splitter  *rewards.Splitter
	Ledger    *ledger.Ledger
	Assigner  *lottery.Assigner

	Registry  chain.Registry
	FeeConfig chain.FeeConfig

	ReferralEdgeStore storage.ReferralEdgeStore
	BalanceStore      storage.BalanceStore
	SwapAuditStore    storage.SwapAuditStore

	Logger *zap.Logger
}

// New creates an Attributor.
func New(opts Options) *Attributor {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Attributor{
		resolver:  opts.Resolver,
		converter: opts.Converter,
		splitter:  opts.Splitter,
		ledger:    opts.Ledger,
		assigner:  opts.Assigner,
		registry:  opts.Registry,
		feeCfg:    opts.FeeConfig,
		edges:     opts.ReferralEdgeStore,
		balances:  opts.BalanceStore,
		audits:    opts.SwapAuditStore,
		log:       log,
	}
}

// Process attributes one swap event. A dropped event performs no writes
// of any kind. Any returned error means the event must be treated as
// not-yet-processed; the store may hold a partial entity set at whatever
// granularity it provides, and redelivery is the caller's concern.
func (a *Attributor) Process(ctx context.Context, ev *domain.SwapEvent) (*Outcome, error) {
	if ev == nil || ev.TxHash == "" || ev.Trader == "" || ev.TokenIn == "" || ev.AmountIn == nil {
		return nil, ErrInvalidEvent
	}

	// Resolve the referral chain first: every drop decision is made
	// before the first write, so drops are side-effect free.
	res, err := a.resolver.Resolve(ctx, ev.Trader)
	if err != nil {
		return nil, err
	}
	if !res.Registered {
		a.log.Debug("dropping swap",
			zap.String("tx", ev.TxHash),
			zap.Uint32("log_index", ev.LogIndex),
			zap.String("reason", DropUnregisteredTrader))
		return &Outcome{Dropped: true, DropReason: DropUnregisteredTrader}, nil
	}
	if res.Parent == "" {
		a.log.Debug("dropping swap",
			zap.String("tx", ev.TxHash),
			zap.Uint32("log_index", ev.LogIndex),
			zap.String("reason", DropMissingParent))
		return &Outcome{Dropped: true, DropReason: DropMissingParent}, nil
	}

	conv, err := a.converter.ToFiatVolume(ctx, ev.TokenIn, ev.AmountIn)
	if err != nil {
		return nil, err
	}

	round, err := a.ledger.EpochOf(ev.Timestamp)
	if err != nil {
		return nil, err
	}

	// One ledger write per role, same amount, same buckets.
	roleTargets := []struct {
		account string
		role    domain.VolumeRole
	}{
		{ev.Trader, domain.RoleTrader},
		{res.Parent, domain.RoleReferrer},
		{res.Grandparent, domain.RoleGrandparentReferrer},
	}
	for _, rt := range roleTargets {
		if err := a.ledger.Record(ctx, rt.account, ev.Router, conv.VolumeInFiat, ev.Timestamp, rt.role); err != nil {
			return nil, err
		}
	}

	split, err := a.reward(ctx, ev, res)
	if err != nil {
		return nil, err
	}

	roundVolume, err := a.ledger.RoundVolume(ctx, ev.Trader, ev.Router, round)
	if err != nil {
		return nil, err
	}
	if err := a.assigner.Apply(ctx, round, ev.Trader, roundVolume); err != nil {
		return nil, err
	}

	if err := a.ensureEdge(ctx, ev, res.Parent); err != nil {
		return nil, err
	}

	record := &domain.SwapAuditRecord{
		TxHash:        ev.TxHash,
		LogIndex:      ev.LogIndex,
		Trader:        ev.Trader,
		Parent:        res.Parent,
		Grandparent:   res.Grandparent,
		TokenIn:       ev.TokenIn,
		AmountIn:      ev.AmountIn.Clone(),
		Stable:        ev.Stable,
		Round:         round,
		VolumeInQuote: conv.VolumeInQuote.Clone(),
		QuotePrice:    conv.QuotePrice.Clone(),
		VolumeInFiat:  conv.VolumeInFiat.Clone(),
		Timestamp:     ev.Timestamp,
	}
	if err := a.audits.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("append audit record %s-%d: %w", ev.TxHash, ev.LogIndex, err)
	}

	a.log.Debug("attributed swap",
		zap.String("tx", ev.TxHash),
		zap.Uint32("log_index", ev.LogIndex),
		zap.String("trader", ev.Trader),
		zap.String("parent", res.Parent),
		zap.Int64("round", round),
		zap.String("volume_fiat", conv.VolumeInFiat.String()))

	return &Outcome{
		Parent:       res.Parent,
		Grandparent:  res.Grandparent,
		Round:        round,
		VolumeInFiat: conv.VolumeInFiat,
		Reward:       split,
	}, nil
}

// reward computes the split off the parent's lifetime referrer volume
// (inclusive of the current swap, which was just recorded) and credits
// the three balances.
func (a *Attributor) reward(ctx context.Context, ev *domain.SwapEvent, res referral.Resolution) (*rewards.Split, error) {
	feeRate, err := a.feeCfg.FeeRateBps(ctx, ev.Stable)
	if err != nil {
		return nil, fmt.Errorf("read fee rate: %w", err)
	}
	fee := rewards.FeeAmount(ev.AmountIn, feeRate)

	tierVolume, err := a.ledger.TierVolume(ctx, res.Parent, ev.Router)
	if err != nil {
		return nil, err
	}

	split, err := a.splitter.Split(ctx, fee, tierVolume)
	if err != nil {
		return nil, err
	}

	platform, err := a.registry.PlatformAccount(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve platform account: %w", err)
	}

	credits := []struct {
		account string
		amount  *num.Uint
	}{
		{res.Parent, split.Parent},
		{res.Grandparent, split.Grandparent},
		{platform, split.Platform},
	}
	for _, c := range credits {
		if err := a.credit(ctx, ev.TokenIn, c.account, c.amount, ev.Timestamp); err != nil {
			return nil, err
		}
	}
	return split, nil
}

// credit adds amount to the (token, account) balance, creating it lazily
// at zero.
func (a *Attributor) credit(ctx context.Context, token, account string, amount *num.Uint, timestamp int64) error {
	bal, err := a.balances.Get(ctx, token, account)
	if errors.Is(err, storage.ErrNotFound) {
		bal = &domain.AccumulativeTokenBalance{
			Token:   token,
			Account: account,
			Amount:  num.UintZero(),
		}
	} else if err != nil {
		return fmt.Errorf("load balance %s/%s: %w", token, account, err)
	}

	bal.Amount.Add(bal.Amount, amount)
	bal.LastUpdate = timestamp

	if err := a.balances.Save(ctx, bal); err != nil {
		return fmt.Errorf("save balance %s/%s: %w", token, account, err)
	}
	return nil
}

// ensureEdge creates the trader's referral edge on first sight and never
// overwrites it afterwards.
func (a *Attributor) ensureEdge(ctx context.Context, ev *domain.SwapEvent, parent string) error {
	err := a.edges.Insert(ctx, &domain.ReferralEdge{
		User:      ev.Trader,
		Referrer:  parent,
		CreatedAt: ev.Timestamp,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create referral edge for %s: %w", ev.Trader, err)
	}
	observability.RecordEdgeCreated()
	return nil
}
