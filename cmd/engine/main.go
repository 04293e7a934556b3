// Package main runs the trading engine: signal generation, trade execution
// and position monitoring wired around one signal bus.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-trade-engine/internal/bus"
	"solana-trade-engine/internal/config"
	"solana-trade-engine/internal/marketdata"
	"solana-trade-engine/internal/monitor"
	"solana-trade-engine/internal/observability"
	"solana-trade-engine/internal/performance"
	"solana-trade-engine/internal/quote"
	"solana-trade-engine/internal/scheduler"
	"solana-trade-engine/internal/signals"
	"solana-trade-engine/internal/slippage"
	"solana-trade-engine/internal/solana"
	"solana-trade-engine/internal/storage"
	chstore "solana-trade-engine/internal/storage/clickhouse"
	"solana-trade-engine/internal/storage/memory"
	"solana-trade-engine/internal/storage/migrations"
	pgstore "solana-trade-engine/internal/storage/postgres"
	"solana-trade-engine/internal/trader"
	"solana-trade-engine/internal/wallet"
)

const shutdownGrace = 30 * time.Second

// stores holds the storage implementations behind the engine.
type stores struct {
	performance storage.PerformanceStore
	positions   storage.PositionStore
	txs         storage.TransactionStore
	snapshots   storage.SnapshotHistoryStore // nil without ClickHouse
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}

	keypair, err := wallet.KeypairFromBase58(cfg.WalletSecretKey)
	if err != nil {
		logger.Fatal("wallet key invalid", zap.Error(err))
	}
	logger.Info("engine starting",
		zap.String("wallet", keypair.Address()),
		zap.String("storage", cfg.StorageBackend))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer cleanup()

	if err := run(ctx, cancel, cfg, keypair, st, logger); err != nil && err != context.Canceled {
		logger.Fatal("engine stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, keypair *wallet.Keypair, st *stores, logger *zap.Logger) error {
	// Market data.
	var birdeyeOpts []marketdata.BirdeyeOption
	if cfg.MarketDataBaseURL != "" {
		birdeyeOpts = append(birdeyeOpts, marketdata.WithBirdeyeURL(cfg.MarketDataBaseURL))
	}
	provider := marketdata.NewBirdeyeClient(cfg.MarketDataAPIKey, logger.Named("birdeye"), birdeyeOpts...)

	cacheOpts := []marketdata.CacheOption{}
	if st.snapshots != nil {
		cacheOpts = append(cacheOpts, marketdata.WithArchiver(st.snapshots))
	}
	cache := marketdata.NewCache(provider, logger.Named("marketdata"), cacheOpts...)

	// Execution.
	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	var quoteOpts []quote.Option
	if cfg.QuoteBaseURL != "" {
		quoteOpts = append(quoteOpts, quote.WithBaseURL(cfg.QuoteBaseURL))
	}
	quotes := quote.NewClient(logger.Named("quote"), quoteOpts...)
	executor := wallet.NewSolanaExecutor(keypair, rpc, quotes, logger.Named("executor"))

	// Orchestration.
	signalBus := bus.New(logger.Named("bus"))
	tracker := performance.NewTracker(st.performance, logger.Named("performance"))
	model := slippage.NewModel()

	traderCfg := trader.DefaultConfig()
	traderCfg.MaxPositionFraction = cfg.MaxPositionFraction
	traderCfg.LiquidityCapFraction = cfg.MaxLiquidityShare
	traderCfg.MinTradeLamports = cfg.MinTradeLamports
	orchestrator := trader.New(traderCfg, executor, cache, model, tracker,
		st.positions, st.txs, logger.Named("trader"))

	// Signal sources.
	trendSource := signals.NewTrendSource(cache, cfg.Watchlist, logger.Named("trend"))
	feedSource := signals.NewFeedSource("social", bus.DefaultBuffer)
	aggregator := signals.NewAggregator(logger.Named("signals"), trendSource, feedSource)
	scorer := signals.NewScorer(logger.Named("scorer"))
	generator := signals.NewGenerator(aggregator, scorer, signalBus.PublishBuy, logger.Named("generator"))

	// Exits.
	monitorCfg := monitor.DefaultConfig()
	monitorCfg.StopLossPct = cfg.StopLossPct
	monitorCfg.TakeProfitPct = cfg.TakeProfitPct
	monitorCfg.TrailingStopPct = cfg.TrailingStopPct
	monitorCfg.Interval = cfg.MonitorInterval
	positionMonitor := monitor.New(monitorCfg, st.positions, cache, executor,
		orchestrator.Ledger(), signalBus.PublishSell, logger.Named("monitor"))

	// External feeds.
	if cfg.PriceFeedEnabled() {
		feed, err := bus.NewPriceFeed(ctx, cfg.PriceWSEndpoint, signalBus, logger.Named("pricefeed"), nil)
		if err != nil {
			logger.Warn("price feed unavailable", zap.Error(err))
		} else {
			defer feed.Close()
		}
	}
	if cfg.SocialFeedEnabled() {
		consumer, err := bus.NewSocialConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID,
			cfg.KafkaTopic, feedSource, logger.Named("social"))
		if err != nil {
			logger.Warn("social feed unavailable", zap.Error(err))
		} else {
			defer consumer.Close()
			go func() {
				if err := consumer.Start(ctx); err != nil {
					logger.Error("social feed stopped", zap.Error(err))
				}
			}()
		}
	}

	// Metrics endpoint and uptime heartbeat.
	go serveMetrics(cfg.MetricsAddr, logger)
	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				observability.DefaultMetrics.UptimeSeconds.Inc()
			}
		}
	}()

	// Shutdown on signal; a second signal or an overrun grace period
	// forces exit. stopped closes when run returns, standing the
	// watchdog down after a clean shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		s := <-sigCh
		logger.Info("signal received, shutting down", zap.String("signal", s.String()))
		cancel()
		watchForceExit(sigCh, stopped, shutdownGrace, logger, os.Exit)
	}()

	// Trade execution loop.
	go orchestrator.Consume(ctx, signalBus)

	// Cadences. Start blocks until ctx is cancelled.
	walletSync := scheduler.NewWalletSync(executor, st.positions, logger.Named("walletsync"))
	sched := scheduler.New(logger.Named("scheduler"))
	sched.Register("signal-generation", cfg.SignalInterval,
		scheduler.SignalGenerationTask(executor, generator, logger.Named("generation")))
	sched.Register("wallet-sync", cfg.WalletSyncInterval, walletSync.Task)
	sched.Register("position-monitor", monitorCfg.Interval, positionMonitor.Check)
	sched.Start(ctx)

	return ctx.Err()
}

// openStores builds the configured storage backend. The cleanup function
// closes every opened connection.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, func(), error) {
	if cfg.StorageBackend == "memory" {
		st := &stores{
			performance: memory.NewPerformanceStore(),
			positions:   memory.NewPositionStore(),
			txs:         memory.NewTransactionStore(),
		}
		return st, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := &stores{
		performance: pgstore.NewPerformanceStore(pool),
		positions:   pgstore.NewPositionStore(pool),
		txs:         pgstore.NewTransactionStore(pool),
	}
	cleanup := func() { pool.Close() }

	// Snapshot history is optional analytics retention.
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse init: %w", err)
		}
		st.snapshots = chstore.NewSnapshotHistoryStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	logger.Info("storage ready", zap.Bool("snapshot_history", st.snapshots != nil))
	return st, cleanup, nil
}

// watchForceExit escalates a shutdown already in flight: a second signal or
// the grace period forces exit unless stopped closes first.
func watchForceExit(sigCh <-chan os.Signal, stopped <-chan struct{}, grace time.Duration, logger *zap.Logger, exit func(int)) {
	select {
	case <-sigCh:
		logger.Warn("second signal, forcing exit")
		exit(1)
	case <-time.After(grace):
		logger.Warn("shutdown grace elapsed, forcing exit")
		exit(1)
	case <-stopped:
	}
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	logger.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}
