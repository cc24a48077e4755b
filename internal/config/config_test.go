package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Chain:     ChainConfig{RPCURL: "http://localhost:8545"},
		Contracts: ContractsConfig{PoolManager: "0x5FbDB2315678afecb367f032d93F642f64180aa3"},
		Tracker:   TrackerConfig{FetchConcurrency: 4, EmptyPollInterval: time.Second},
		Swap:      SwapConfig{SlippagePercent: 5, ApprovalPollInterval: time.Second},
		Activity:  ActivityConfig{Limit: 5},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Tracker.SettleDelay)
	assert.Equal(t, 5*time.Second, cfg.Tracker.EmptyPollInterval)
	assert.Equal(t, 3*time.Second, cfg.Tracker.NewFlagDuration)
	assert.Equal(t, 10*time.Second, cfg.Tracker.MaxSnapshotAge)
	assert.Equal(t, 5, cfg.Swap.SlippagePercent)
	assert.Equal(t, 30*time.Second, cfg.Swap.Deadline)
	assert.Equal(t, 2*time.Second, cfg.Swap.ApprovalInitialDelay)
	assert.Equal(t, time.Second, cfg.Swap.ApprovalPollInterval)
	assert.Equal(t, 5, cfg.Activity.Limit)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "launchpad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain:
  rpc_url: http://node:8545
tracker:
  settle_delay: 750ms
swap:
  slippage_percent: 3
`), 0o600))

	t.Setenv("LAUNCHPAD_SWAP_SLIPPAGE_PERCENT", "7")
	t.Setenv("LAUNCHPAD_POSTGRES_DSN", "postgres://u:p@db/launchpad")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://node:8545", cfg.Chain.RPCURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Tracker.SettleDelay)
	assert.Equal(t, 7, cfg.Swap.SlippagePercent, "environment overrides the file")
	assert.Equal(t, "postgres://u:p@db/launchpad", cfg.Postgres.DSN)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LAUNCHPAD_HTTP_ADDR=:9999\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LAUNCHPAD_HTTP_ADDR") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc", func(c *Config) { c.Chain.RPCURL = "" }},
		{"bad rpc scheme", func(c *Config) { c.Chain.RPCURL = "ftp://node" }},
		{"bad ws scheme", func(c *Config) { c.Chain.WSURL = "http://node" }},
		{"missing pool manager", func(c *Config) { c.Contracts.PoolManager = "" }},
		{"bad router address", func(c *Config) { c.Contracts.Router = "0x123" }},
		{"negative slippage", func(c *Config) { c.Swap.SlippagePercent = -1 }},
		{"full slippage", func(c *Config) { c.Swap.SlippagePercent = 100 }},
		{"zero concurrency", func(c *Config) { c.Tracker.FetchConcurrency = 0 }},
		{"zero activity limit", func(c *Config) { c.Activity.Limit = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := validConfig()
	assert.Error(t, cfg.ValidateServer(), "postgres dsn required")

	cfg.UseMemory = true
	assert.NoError(t, cfg.ValidateServer())

	cfg.UseMemory = false
	cfg.Postgres.DSN = "postgres://localhost/launchpad"
	assert.NoError(t, cfg.ValidateServer())
}

func TestSubscribeURL(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http://localhost:8545", cfg.SubscribeURL())

	cfg.Chain.WSURL = "ws://localhost:8546"
	assert.Equal(t, "ws://localhost:8546", cfg.SubscribeURL())
}
