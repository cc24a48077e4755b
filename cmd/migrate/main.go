// Package main applies the embedded postgres and clickhouse migrations and
// reports the token_metadata row count.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"core-launchpad/internal/config"
	"core-launchpad/internal/logging"
	"core-launchpad/internal/storage/migrations"
	pgstore "core-launchpad/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file")
	timeout := flag.Duration("timeout", time.Minute, "Overall timeout")
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

	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres.dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return err
	}
	logger.Info("postgres migrations applied", zap.Strings("files", applied))

	if cfg.ClickHouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return err
		}
		conn.Close()
		logger.Info("clickhouse migrations applied")
	}

	count, err := pgstore.NewTokenMetadataStore(pool).Count(ctx)
	if err != nil {
		return fmt.Errorf("count token_metadata: %w", err)
	}
	logger.Info("database ready", zap.Int("token_metadata_rows", count))
	fmt.Printf("token_metadata rows: %d\n", count)
	return nil
}
