package ledger

import (
	"context"
	"errors"
	"testing"

	"referral-attribution/internal/domain"
	"referral-attribution/internal/num"
	"referral-attribution/internal/storage/memory"
)

const (
	epochStart  = int64(1673481600)
	epochLength = int64(604800)
	acct        = "0x0000000000000000000000000000000000000001"
	pairAddr    = "0x00000000000000000000000000000000000000aa"
)

type testStores struct {
	lifetime  *memory.GeneratedVolumeStore
	epochs    *memory.EpochVolumeStore
	days      *memory.DailyVolumeStore
	snapshots *memory.VolumeSnapshotStore
}

func newTestLedger(cfg Config) (*Ledger, *testStores) {
	s := &testStores{
		lifetime:  memory.NewGeneratedVolumeStore(),
		epochs:    memory.NewEpochVolumeStore(),
		days:      memory.NewDailyVolumeStore(),
		snapshots: memory.NewVolumeSnapshotStore(),
	}
	return New(cfg, s.lifetime, s.epochs, s.days, s.snapshots), s
}

func defaultConfig() Config {
	return Config{EpochStart: epochStart, EpochLength: epochLength}
}

func TestEpochOf_PureFunctionOfTimestamp(t *testing.T) {
	l, _ := newTestLedger(defaultConfig())

	cases := []struct {
		ts   int64
		want int64
	}{
		{epochStart, 0},
		{epochStart + epochLength - 1, 0},
		{epochStart + epochLength, 1},
		{epochStart + 10*epochLength + 5, 10},
	}
	for _, tc := range cases {
		// same timestamp must map identically no matter how often asked
		for i := 0; i < 3; i++ {
			got, err := l.EpochOf(tc.ts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ts %d: expected epoch %d, got %d", tc.ts, tc.want, got)
			}
		}
	}
}

func TestEpochOf_ZeroLengthIsFatal(t *testing.T) {
	l, _ := newTestLedger(Config{EpochStart: epochStart})

	if _, err := l.EpochOf(epochStart + 100); !errors.Is(err, ErrZeroEpochLength) {
		t.Errorf("expected ErrZeroEpochLength, got %v", err)
	}
}

func TestDayOf(t *testing.T) {
	if got := DayOf(0); got != 0 {
		t.Errorf("expected day 0, got %d", got)
	}
	if got := DayOf(86399); got != 0 {
		t.Errorf("expected day 0, got %d", got)
	}
	if got := DayOf(86400); got != 1 {
		t.Errorf("expected day 1, got %d", got)
	}
}

func TestRecord_UpdatesAllGranularities(t *testing.T) {
	l, s := newTestLedger(defaultConfig())
	ctx := context.Background()
	ts := epochStart + epochLength + 500 // epoch 1

	if err := l.Record(ctx, acct, pairAddr, num.NewUint(100), ts, domain.RoleTrader); err != nil {
		t.Fatalf("record: %v", err)
	}

	life, err := s.lifetime.Get(ctx, acct, "")
	if err != nil {
		t.Fatalf("lifetime row missing: %v", err)
	}
	if life.AsTrader.Uint64() != 100 {
		t.Errorf("lifetime trader volume: expected 100, got %s", life.AsTrader)
	}

	ev, err := s.epochs.Get(ctx, acct, "", 1)
	if err != nil {
		t.Fatalf("epoch row missing: %v", err)
	}
	if ev.AsTrader.Uint64() != 100 {
		t.Errorf("epoch trader volume: expected 100, got %s", ev.AsTrader)
	}

	dv, err := s.days.Get(ctx, acct, "", DayOf(ts))
	if err != nil {
		t.Fatalf("day row missing: %v", err)
	}
	if dv.AsTrader.Uint64() != 100 {
		t.Errorf("day trader volume: expected 100, got %s", dv.AsTrader)
	}
}

func TestRecord_RolesAreIndependent(t *testing.T) {
	l, s := newTestLedger(defaultConfig())
	ctx := context.Background()
	ts := epochStart + 100

	must := func(role domain.VolumeRole, amount uint64) {
		t.Helper()
		if err := l.Record(ctx, acct, pairAddr, num.NewUint(amount), ts, role); err != nil {
			t.Fatalf("record role %s: %v", role, err)
		}
	}
	must(domain.RoleTrader, 10)
	must(domain.RoleReferrer, 20)
	must(domain.RoleGrandparentReferrer, 30)

	life, err := s.lifetime.Get(ctx, acct, "")
	if err != nil {
		t.Fatalf("lifetime row missing: %v", err)
	}
	if life.AsTrader.Uint64() != 10 || life.AsReferrer.Uint64() != 20 || life.AsGrandparent.Uint64() != 30 {
		t.Errorf("role sub-amounts mixed up: %s/%s/%s", life.AsTrader, life.AsReferrer, life.AsGrandparent)
	}
}

func TestRecord_MonotonicAcrossEvents(t *testing.T) {
	l, s := newTestLedger(defaultConfig())
	ctx := context.Background()

	prev := num.UintZero()
	for i := 0; i < 5; i++ {
		ts := epochStart + int64(i)*1000
		if err := l.Record(ctx, acct, pairAddr, num.NewUint(7), ts, domain.RoleTrader); err != nil {
			t.Fatalf("record: %v", err)
		}
		life, err := s.lifetime.Get(ctx, acct, "")
		if err != nil {
			t.Fatalf("lifetime row missing: %v", err)
		}
		if life.AsTrader.LT(prev) {
			t.Errorf("lifetime volume decreased: %s < %s", life.AsTrader, prev)
		}
		prev = life.AsTrader
	}
	if prev.Uint64() != 35 {
		t.Errorf("expected 35 after 5 increments, got %s", prev)
	}
}

func TestRecord_PerPairGranularity(t *testing.T) {
	cfg := defaultConfig()
	cfg.PerPair = true
	cfg.TierScope = TierScopePerPair
	l, s := newTestLedger(cfg)
	ctx := context.Background()
	ts := epochStart + 100

	otherPair := "0x00000000000000000000000000000000000000bb"
	if err := l.Record(ctx, acct, pairAddr, num.NewUint(100), ts, domain.RoleReferrer); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Record(ctx, acct, otherPair, num.NewUint(40), ts, domain.RoleReferrer); err != nil {
		t.Fatalf("record: %v", err)
	}

	if s.lifetime.Len() != 2 {
		t.Fatalf("expected 2 lifetime rows, got %d", s.lifetime.Len())
	}

	vol, err := l.TierVolume(ctx, acct, pairAddr)
	if err != nil {
		t.Fatalf("tier volume: %v", err)
	}
	if vol.Uint64() != 100 {
		t.Errorf("per-pair tier volume: expected 100, got %s", vol)
	}
}

func TestTierVolume_MissingRowIsZero(t *testing.T) {
	l, _ := newTestLedger(defaultConfig())

	vol, err := l.TierVolume(context.Background(), acct, pairAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vol.IsZero() {
		t.Errorf("expected zero, got %s", vol)
	}
}

func TestRoundVolume_TracksEpochTraderVolume(t *testing.T) {
	l, _ := newTestLedger(defaultConfig())
	ctx := context.Background()
	ts := epochStart + 2*epochLength + 10 // epoch 2

	if err := l.Record(ctx, acct, pairAddr, num.NewUint(55), ts, domain.RoleTrader); err != nil {
		t.Fatalf("record: %v", err)
	}

	vol, err := l.RoundVolume(ctx, acct, pairAddr, 2)
	if err != nil {
		t.Fatalf("round volume: %v", err)
	}
	if vol.Uint64() != 55 {
		t.Errorf("expected 55, got %s", vol)
	}

	vol, err = l.RoundVolume(ctx, acct, pairAddr, 3)
	if err != nil {
		t.Fatalf("round volume: %v", err)
	}
	if !vol.IsZero() {
		t.Errorf("other epoch must be zero, got %s", vol)
	}
}

func TestRecord_WritesSnapshots(t *testing.T) {
	l, s := newTestLedger(defaultConfig())
	ctx := context.Background()

	if err := l.Record(ctx, acct, pairAddr, num.NewUint(5), epochStart+1, domain.RoleTrader); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := l.Record(ctx, acct, pairAddr, num.NewUint(5), epochStart+2, domain.RoleTrader); err != nil {
		t.Fatalf("record: %v", err)
	}

	snaps, err := s.snapshots.GetByAccount(ctx, acct)
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[1].AsTrader.Uint64() != 10 {
		t.Errorf("second snapshot must carry running total 10, got %s", snaps[1].AsTrader)
	}
}
