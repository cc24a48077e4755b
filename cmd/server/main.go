// Package main runs the launchpad service: the HTTP API, the presale
// tracker and the websocket feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"core-launchpad/internal/activity"
	"core-launchpad/internal/api"
	"core-launchpad/internal/cache"
	"core-launchpad/internal/chain"
	"core-launchpad/internal/config"
	"core-launchpad/internal/discovery"
	"core-launchpad/internal/logging"
	"core-launchpad/internal/presale"
	"core-launchpad/internal/storage"
	chstore "core-launchpad/internal/storage/clickhouse"
	"core-launchpad/internal/storage/memory"
	pgstore "core-launchpad/internal/storage/postgres"
)

// stores holds the storage implementations selected by config.
type stores struct {
	metadata  storage.TokenMetadataStore
	snapshots storage.PresaleSnapshotStore
	progress  storage.DiscoveryProgressStore
}

func main() {
	configPath := flag.String("config", "", "Path to a config file (yaml, toml or json)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, cfg, logger)
	close(done)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	st, closeStores, err := createStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer closeStores()

	respCache, err := createCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer respCache.Close()

	rpc, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		return err
	}
	defer rpc.Close()

	// Log subscriptions need a websocket endpoint when rpc_url is plain HTTP.
	watchClient := rpc
	if url := cfg.SubscribeURL(); url != cfg.Chain.RPCURL {
		watchClient, err = chain.Dial(ctx, url)
		if err != nil {
			return err
		}
		defer watchClient.Close()
	}

	manager := common.HexToAddress(cfg.Contracts.PoolManager)
	reader := presale.NewReader(rpc, manager, time.Now)

	tracker := discovery.New(discovery.Options{
		Reader:            presale.NewReader(watchClient, manager, time.Now),
		Snapshots:         st.snapshots,
		Progress:          st.progress,
		SettleDelay:       cfg.Tracker.SettleDelay,
		EmptyPollInterval: cfg.Tracker.EmptyPollInterval,
		FetchConcurrency:  cfg.Tracker.FetchConcurrency,
		NewFlagDuration:   cfg.Tracker.NewFlagDuration,
		MaxAge:            cfg.Tracker.MaxSnapshotAge,
		Logger:            logger,
	})

	service := presale.NewService(presale.Options{
		Reader:           reader,
		FetchConcurrency: cfg.Tracker.FetchConcurrency,
		Logger:           logger,
	})

	gin.SetMode(gin.ReleaseMode)
	server := api.New(api.Options{
		Metadata:      st.metadata,
		Reader:        reader,
		Presales:      service,
		Tracker:       tracker,
		Activity:      activity.NewFeed(rpc, logger),
		Cache:         respCache,
		ActivityLimit: cfg.Activity.Limit,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		if err := tracker.Run(ctx); err != nil {
			errCh <- fmt.Errorf("tracker: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	return runErr
}

// createStores picks postgres for metadata and seen pools, and clickhouse
// for snapshot history when a DSN is configured. Without clickhouse no
// history is kept. use_memory keeps everything in process.
func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			metadata:  memory.NewTokenMetadataStore(),
			snapshots: memory.NewPresaleSnapshotStore(),
			progress:  memory.NewDiscoveryProgressStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	st := &stores{
		metadata: pgstore.NewTokenMetadataStore(pool),
		progress: pgstore.NewDiscoveryProgressStore(pool),
	}
	if cfg.ClickHouse.DSN == "" {
		return st, pool.Close, nil
	}

	chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	st.snapshots = chstore.NewPresaleSnapshotStore(chConn)

	return st, func() {
		chConn.Close()
		pool.Close()
	}, nil
}

// createCache uses redis when an address is configured, otherwise an
// in-process cache.
func createCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Redis.Addr != "" {
		return cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.TTL)
	}
	return cache.NewLocal(ctx, cfg.Cache.TTL)
}
