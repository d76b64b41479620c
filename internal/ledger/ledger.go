// Package ledger maintains lifetime, epoch and daily volume aggregates
// attributed to accounts in their trader, referrer and grandparent roles.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/storage"
)

// secondsPerDay fixes the daily bucket width.
const secondsPerDay = 86400

// ErrZeroEpochLength marks an epoch length of zero read from
// configuration. Bucketing would divide by zero; fatal for the event.
var ErrZeroEpochLength = errors.New("ledger: configured epoch length is zero")

// TierScope selects which volume row feeds reward-tier lookups.
type TierScope int

const (
	// TierScopeGlobal reads the account's global lifetime row.
	TierScopeGlobal TierScope = iota
	// TierScopePerPair reads the account's lifetime row for the pair the
	// swap happened on.
	TierScopePerPair
)

// Config fixes the ledger's bucketing schedule and granularity. All
// values come from external configuration at construction time.
type Config struct {
	EpochStart  int64 // Unix seconds the epoch schedule starts at
	EpochLength int64 // epoch width in seconds
	PerPair     bool  // key rows by (account, pair) instead of (account)
	TierScope   TierScope
}

// Ledger records attributed volume across all granularities. Every Record
// call updates the lifetime, epoch and daily rows together; there is no
// decrement or rollback.
type Ledger struct {
	cfg       Config
	lifetime  storage.GeneratedVolumeStore
	epochs    storage.EpochVolumeStore
	days      storage.DailyVolumeStore
	snapshots storage.VolumeSnapshotStore // optional
}

// New creates a Ledger. snapshots may be nil to disable the per-event
// lifetime snapshot timeseries.
func New(cfg Config, lifetime storage.GeneratedVolumeStore, epochs storage.EpochVolumeStore, days storage.DailyVolumeStore, snapshots storage.VolumeSnapshotStore) *Ledger {
	return &Ledger{
		cfg:       cfg,
		lifetime:  lifetime,
		epochs:    epochs,
		days:      days,
		snapshots: snapshots,
	}
}

// EpochOf returns the epoch bucket for a timestamp: a pure function of
// its inputs, so replay always reproduces the same assignment.
func (l *Ledger) EpochOf(timestamp int64) (int64, error) {
	if l.cfg.EpochLength == 0 {
		return 0, ErrZeroEpochLength
	}
	return (timestamp - l.cfg.EpochStart) / l.cfg.EpochLength, nil
}

// DayOf returns the daily bucket for a timestamp.
func DayOf(timestamp int64) int64 {
	return timestamp / secondsPerDay
}

// rowPair normalizes the pair key for the configured granularity.
func (l *Ledger) rowPair(pair string) string {
	if l.cfg.PerPair {
		return pair
	}
	return ""
}

// Record attributes amount to account in the given role at the given
// timestamp: the lifetime row, the epoch row and the day row all take the
// same increment. Increments are additive and irreversible.
func (l *Ledger) Record(ctx context.Context, account, pair string, amount *num.Uint, timestamp int64, role domain.VolumeRole) error {
	epoch, err := l.EpochOf(timestamp)
	if err != nil {
		return err
	}
	day := DayOf(timestamp)
	key := l.rowPair(pair)

	life, err := l.loadLifetime(ctx, account, key)
	if err != nil {
		return err
	}
	ev, err := l.loadEpoch(ctx, account, key, epoch)
	if err != nil {
		return err
	}
	dv, err := l.loadDay(ctx, account, key, day)
	if err != nil {
		return err
	}

	switch role {
	case domain.RoleTrader:
		life.AsTrader.Add(life.AsTrader, amount)
		ev.AsTrader.Add(ev.AsTrader, amount)
		dv.AsTrader.Add(dv.AsTrader, amount)
	case domain.RoleReferrer:
		life.AsReferrer.Add(life.AsReferrer, amount)
		ev.AsReferrer.Add(ev.AsReferrer, amount)
		dv.AsReferrer.Add(dv.AsReferrer, amount)
	case domain.RoleGrandparentReferrer:
		life.AsGrandparent.Add(life.AsGrandparent, amount)
		ev.AsGrandparent.Add(ev.AsGrandparent, amount)
		dv.AsGrandparent.Add(dv.AsGrandparent, amount)
	default:
		return fmt.Errorf("ledger: unknown volume role %d", role)
	}

	life.LastUpdate = timestamp
	ev.LastUpdate = timestamp
	dv.LastUpdate = timestamp

	if err := l.lifetime.Save(ctx, life); err != nil {
		return fmt.Errorf("save lifetime volume: %w", err)
	}
	if err := l.epochs.Save(ctx, ev); err != nil {
		return fmt.Errorf("save epoch volume: %w", err)
	}
	if err := l.days.Save(ctx, dv); err != nil {
		return fmt.Errorf("save daily volume: %w", err)
	}

	if l.snapshots != nil {
		snap := &domain.VolumeSnapshot{
			Account:       account,
			Timestamp:     timestamp,
			AsTrader:      life.AsTrader.Clone(),
			AsReferrer:    life.AsReferrer.Clone(),
			AsGrandparent: life.AsGrandparent.Clone(),
		}
		if err := l.snapshots.Insert(ctx, snap); err != nil {
			return fmt.Errorf("insert volume snapshot: %w", err)
		}
	}

	return nil
}

// TierVolume returns the lifetime referrer volume feeding reward-tier
// lookups for the account, scoped globally or to the given pair per
// configuration.
func (l *Ledger) TierVolume(ctx context.Context, account, pair string) (*num.Uint, error) {
	key := ""
	if l.cfg.PerPair && l.cfg.TierScope == TierScopePerPair {
		key = pair
	}
	life, err := l.lifetime.Get(ctx, account, key)
	if errors.Is(err, storage.ErrNotFound) {
		return num.UintZero(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tier volume: %w", err)
	}
	return life.AsReferrer, nil
}

// RoundVolume returns the account's trader volume accumulated so far in
// the given epoch, feeding lottery ticket computation.
func (l *Ledger) RoundVolume(ctx context.Context, account, pair string, epoch int64) (*num.Uint, error) {
	ev, err := l.epochs.Get(ctx, account, l.rowPair(pair), epoch)
	if errors.Is(err, storage.ErrNotFound) {
		return num.UintZero(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load round volume: %w", err)
	}
	return ev.AsTrader, nil
}

func (l *Ledger) loadLifetime(ctx context.Context, account, pair string) (*domain.GeneratedVolume, error) {
	v, err := l.lifetime.Get(ctx, account, pair)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.GeneratedVolume{
			Account:       account,
			Pair:          pair,
			AsTrader:      num.UintZero(),
			AsReferrer:    num.UintZero(),
			AsGrandparent: num.UintZero(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load lifetime volume: %w", err)
	}
	return v, nil
}

func (l *Ledger) loadEpoch(ctx context.Context, account, pair string, epoch int64) (*domain.EpochVolume, error) {
	v, err := l.epochs.Get(ctx, account, pair, epoch)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.EpochVolume{
			Account:       account,
			Pair:          pair,
			Epoch:         epoch,
			AsTrader:      num.UintZero(),
			AsReferrer:    num.UintZero(),
			AsGrandparent: num.UintZero(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load epoch volume: %w", err)
	}
	return v, nil
}

func (l *Ledger) loadDay(ctx context.Context, account, pair string, day int64) (*domain.DailyVolume, error) {
	v, err := l.days.Get(ctx, account, pair, day)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.DailyVolume{
			Account:       account,
			Pair:          pair,
			Day:           day,
			AsTrader:      num.UintZero(),
			AsReferrer:    num.UintZero(),
			AsGrandparent: num.UintZero(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily volume: %w", err)
	}
	return v, nil
}
