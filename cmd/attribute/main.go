package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"referral-attribution/internal/attribution"
	"referral-attribution/internal/chain"
	"referral-attribution/internal/domain"
	"referral-attribution/internal/feed"
	"referral-attribution/internal/ledger"
	"referral-attribution/internal/lottery"
	"referral-attribution/internal/num"
	"referral-attribution/internal/observability"
	"referral-attribution/internal/quote"
	"referral-attribution/internal/referral"
	"referral-attribution/internal/rewards"
	"referral-attribution/internal/storage"
	chstore "referral-attribution/internal/storage/clickhouse"
	"referral-attribution/internal/storage/memory"
	"referral-attribution/internal/storage/migrations"
	pgstore "referral-attribution/internal/storage/postgres"
)

type runOptions struct {
	mode          string
	wsEndpoint    string
	eventsFile    string
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	migrate       bool

	routers       []string
	blockLag      int64
	flushInterval time.Duration

	perPair      bool
	perPairTiers bool

	pairGraph bool
	maxHops   int

	policy          lottery.Policy
	ticketThreshold *num.Uint

	chainCfg *chainConfig
}

func main() {
	mode := flag.String("mode", "live", "Feed mode: live (WebSocket) or replay (event file)")
	wsEndpoint := flag.String("ws-endpoint", "", "Swap feed WebSocket endpoint")
	eventsFile := flag.String("events-file", "", "JSON-lines swap event file for replay mode")
	chainConfigPath := flag.String("chain-config", "", "Path to the chain collaborator config JSON")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for volume snapshots (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	migrate := flag.Bool("migrate", false, "Apply database migrations on startup")
	routers := flag.String("routers", "", "Comma-separated router addresses to subscribe to")
	blockLag := flag.Int64("block-lag", 3, "Blocks behind the tip before a block's events are released")
	flushInterval := flag.Duration("flush-interval", 5*time.Second, "How often finalized blocks are force-flushed")
	perPair := flag.Bool("per-pair", false, "Key volume rows by (account, pair) instead of account")
	perPairTiers := flag.Bool("per-pair-tiers", false, "Read reward tiers from per-pair volume")
	pairGraph := flag.Bool("pair-graph", false, "Price input tokens along pair-graph routes instead of the flat rate table")
	maxHops := flag.Int("max-hops", quote.DefaultMaxHops, "Route length cap for --pair-graph")
	policyName := flag.String("lottery-policy", "hwm", "Lottery ticket policy: hwm or additive")
	ticketThreshold := flag.String("ticket-threshold", "", "Single-threshold ticket table (fiat volume, 1e18 scale); empty uses the tier schedule")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	devLogging := flag.Bool("dev-logging", false, "Human-readable console logging")

	flag.Parse()

	logger := newLogger(*devLogging)
	defer logger.Sync()

	if *chainConfigPath == "" {
		logger.Fatal("--chain-config is required")
	}
	chainCfg, err := loadChainConfig(*chainConfigPath)
	if err != nil {
		logger.Fatal("loading chain config", zap.Error(err))
	}

	var policy lottery.Policy
	switch *policyName {
	case "hwm":
		policy = lottery.PolicyHighWaterMark
	case "additive":
		policy = lottery.PolicyAdditive
	default:
		logger.Fatal("unknown lottery policy", zap.String("policy", *policyName))
	}

	var threshold *num.Uint
	if *ticketThreshold != "" {
		v, failed := num.UintFromString(*ticketThreshold)
		if failed {
			logger.Fatal("bad ticket threshold", zap.String("value", *ticketThreshold))
		}
		threshold = v
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info("starting metrics server", zap.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server error", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.Stringer("signal", sig))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Error("received second signal, forcing immediate shutdown", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, runOptions{
		mode:            *mode,
		wsEndpoint:      *wsEndpoint,
		eventsFile:      *eventsFile,
		postgresDSN:     *postgresDSN,
		clickhouseDSN:   *clickhouseDSN,
		useMemory:       *useMemory,
		migrate:         *migrate,
		routers:         splitList(*routers),
		blockLag:        *blockLag,
		flushInterval:   *flushInterval,
		perPair:         *perPair,
		perPairTiers:    *perPairTiers,
		pairGraph:       *pairGraph,
		maxHops:         *maxHops,
		policy:          policy,
		ticketThreshold: threshold,
		chainCfg:        chainCfg,
	})

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("attribution feed failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// run wires stores, collaborators and the feed runner, then consumes the
// feed until the context ends.
func run(ctx context.Context, logger *zap.Logger, opts runOptions) error {
	// Memory stores by default; postgres (and optionally clickhouse)
	// replace them below.
	var (
		edgeStore     storage.ReferralEdgeStore    = memory.NewReferralEdgeStore()
		balanceStore  storage.BalanceStore         = memory.NewBalanceStore()
		lifetimeStore storage.GeneratedVolumeStore = memory.NewGeneratedVolumeStore()
		epochStore    storage.EpochVolumeStore     = memory.NewEpochVolumeStore()
		dailyStore    storage.DailyVolumeStore     = memory.NewDailyVolumeStore()
		roundStore    storage.LotteryRoundStore    = memory.NewLotteryRoundStore()
		entryStore    storage.UserLotteryStore     = memory.NewUserLotteryStore()
		auditStore    storage.SwapAuditStore       = memory.NewSwapAuditStore()
		pairStore     storage.PairEdgeStore        = memory.NewPairEdgeStore()
		snapshotStore storage.VolumeSnapshotStore
	)

	if opts.useMemory {
		snapshotStore = memory.NewVolumeSnapshotStore()
	} else {
		if opts.postgresDSN == "" {
			return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}

		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if opts.migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		edgeStore = pgstore.NewReferralEdgeStore(pool)
		balanceStore = pgstore.NewBalanceStore(pool)
		lifetimeStore = pgstore.NewGeneratedVolumeStore(pool)
		epochStore = pgstore.NewEpochVolumeStore(pool)
		dailyStore = pgstore.NewDailyVolumeStore(pool)
		roundStore = pgstore.NewLotteryRoundStore(pool)
		entryStore = pgstore.NewUserLotteryStore(pool)
		auditStore = pgstore.NewSwapAuditStore(pool)
		pairStore = pgstore.NewPairEdgeStore(pool)

		if opts.clickhouseDSN != "" {
			var conn *chstore.Conn
			var err error
			if opts.migrate {
				conn, err = migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
				if err == nil {
					logger.Info("clickhouse migrations applied")
				}
			} else {
				conn, err = chstore.NewConn(ctx, opts.clickhouseDSN)
			}
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
			defer conn.Close()

			snapshotStore = chstore.NewVolumeSnapshotStore(conn)
		}
	}

	registry, feeCfg, quoter, priceFeed, err := opts.chainCfg.build()
	if err != nil {
		return err
	}

	// Flat rate-table quoting unless --pair-graph routes through the
	// configured pair edges.
	var eventQuoter chain.Quoter = quoter
	if opts.pairGraph {
		graph := quote.NewGraph(pairStore, quoter, quoter, opts.maxHops)
		for _, p := range opts.chainCfg.Pairs {
			edge := &domain.PairEdge{Pair: p.Pair, Token0: p.Token0, Token1: p.Token1, Stable: p.Stable}
			if err := graph.RegisterPair(ctx, edge); err != nil {
				return fmt.Errorf("seed pair edges: %w", err)
			}
		}
		logger.Info("pair-graph quoting enabled",
			zap.Int("configured_pairs", len(opts.chainCfg.Pairs)),
			zap.Int("max_hops", opts.maxHops))
		eventQuoter = graph
	}

	tierScope := ledger.TierScopeGlobal
	if opts.perPairTiers {
		tierScope = ledger.TierScopePerPair
	}
	led := ledger.New(ledger.Config{
		EpochStart:  opts.chainCfg.EpochStart,
		EpochLength: opts.chainCfg.EpochLength,
		PerPair:     opts.perPair,
		TierScope:   tierScope,
	}, lifetimeStore, epochStore, dailyStore, snapshotStore)

	ticketTable := lottery.DefaultTicketTiers()
	if opts.ticketThreshold != nil {
		ticketTable = lottery.BinaryTicketTable(opts.ticketThreshold)
	}

	attributor := attribution.New(attribution.Options{
		Resolver:          referral.NewResolver(registry),
		Converter:         quote.NewConverter(eventQuoter, priceFeed, opts.chainCfg.QuoteToken),
		Splitter:          rewards.NewSplitter(feeCfg, rewards.DefaultRewardTiers()),
		Ledger:            led,
		Assigner:          lottery.NewAssigner(roundStore, entryStore, ticketTable, opts.policy),
		Registry:          registry,
		FeeConfig:         feeCfg,
		ReferralEdgeStore: edgeStore,
		BalanceStore:      balanceStore,
		SwapAuditStore:    auditStore,
		Logger:            logger,
	})

	var source feed.Source
	switch opts.mode {
	case "live":
		if opts.wsEndpoint == "" {
			return fmt.Errorf("--ws-endpoint is required for live mode")
		}
		ws, err := feed.NewWSSource(ctx, opts.wsEndpoint, opts.routers, nil, logger)
		if err != nil {
			return fmt.Errorf("connect to swap feed: %w", err)
		}
		defer ws.Close()
		source = ws
	case "replay":
		if opts.eventsFile == "" {
			return fmt.Errorf("--events-file is required for replay mode")
		}
		source = feed.NewFileSource(opts.eventsFile)
	default:
		return fmt.Errorf("unknown mode: %s", opts.mode)
	}

	runner := feed.NewRunner(feed.RunnerOptions{
		Source:         source,
		Processor:      attributor,
		Deduper:        feed.NewDeduper(auditStore),
		Logger:         logger,
		BlockLagWindow: opts.blockLag,
		FlushInterval:  opts.flushInterval,
	})

	logger.Info("starting attribution feed",
		zap.String("mode", opts.mode),
		zap.Strings("routers", opts.routers))

	runErr := runner.Run(ctx)

	stats := runner.Stats()
	logger.Info("feed finished",
		zap.Int64("attributed", stats.Processed),
		zap.Int64("dropped", stats.Dropped),
		zap.Int64("duplicates", stats.Duplicates),
		zap.Int64("malformed", stats.Malformed))

	return runErr
}
