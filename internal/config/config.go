// Package config loads service and CLI configuration from defaults, an
// optional config file, a .env file and LAUNCHPAD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. LAUNCHPAD_POSTGRES_DSN.
const EnvPrefix = "LAUNCHPAD"

type Config struct {
	HTTP       HTTPConfig       `mapstructure:"http"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	UseMemory  bool             `mapstructure:"use_memory"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Contracts  ContractsConfig  `mapstructure:"contracts"`
	Tracker    TrackerConfig    `mapstructure:"tracker"`
	Swap       SwapConfig       `mapstructure:"swap"`
	Activity   ActivityConfig   `mapstructure:"activity"`
	Log        LogConfig        `mapstructure:"log"`
	Wallet     WalletConfig     `mapstructure:"wallet"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type ClickHouseConfig struct {
	DSN string `mapstructure:"dsn"` // optional; snapshots stay in memory when empty
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"` // optional; local cache when empty
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ChainConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	WSURL   string `mapstructure:"ws_url"`   // event subscriptions; falls back to rpc_url
	ChainID int64  `mapstructure:"chain_id"` // 0 = ask the node
}

type ContractsConfig struct {
	PoolManager   string `mapstructure:"pool_manager"`
	Router        string `mapstructure:"router"`
	WrappedNative string `mapstructure:"wrapped_native"`
}

type TrackerConfig struct {
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	EmptyPollInterval time.Duration `mapstructure:"empty_poll_interval"`
	FetchConcurrency  int           `mapstructure:"fetch_concurrency"`
	NewFlagDuration   time.Duration `mapstructure:"new_flag_duration"`
	MaxSnapshotAge    time.Duration `mapstructure:"max_snapshot_age"`
}

type SwapConfig struct {
	SlippagePercent      int           `mapstructure:"slippage_percent"`
	Deadline             time.Duration `mapstructure:"deadline"`
	ApprovalInitialDelay time.Duration `mapstructure:"approval_initial_delay"`
	ApprovalPollInterval time.Duration `mapstructure:"approval_poll_interval"`
	ApprovalTimeout      time.Duration `mapstructure:"approval_timeout"`
}

type ActivityConfig struct {
	Limit int `mapstructure:"limit"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // console | json
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"` // hex, only needed for write commands
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":                   ":8080",
		"http.shutdown_timeout":       10 * time.Second,
		"postgres.dsn":                "",
		"clickhouse.dsn":              "",
		"redis.addr":                  "",
		"redis.password":              "",
		"redis.db":                    0,
		"cache.ttl":                   5 * time.Second,
		"use_memory":                  false,
		"chain.rpc_url":               "",
		"chain.ws_url":                "",
		"chain.chain_id":              0,
		"contracts.pool_manager":      "",
		"contracts.router":            "",
		"contracts.wrapped_native":    "",
		"tracker.settle_delay":        500 * time.Millisecond,
		"tracker.empty_poll_interval": 5 * time.Second,
		"tracker.fetch_concurrency":   8,
		"tracker.new_flag_duration":   3 * time.Second,
		"tracker.max_snapshot_age":    10 * time.Second,
		"swap.slippage_percent":       5,
		"swap.deadline":               30 * time.Second,
		"swap.approval_initial_delay": 2 * time.Second,
		"swap.approval_poll_interval": time.Second,
		"swap.approval_timeout":       2 * time.Minute,
		"activity.limit":              5,
		"log.level":                   "info",
		"log.format":                  "console",
		"log.file":                    "",
		"log.max_size_mb":             100,
		"log.max_backups":             5,
		"log.max_age_days":            30,
		"wallet.private_key":          "",
	}
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and the environment are used. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return errors.New("chain.rpc_url is required")
	}
	if err := validateURL(c.Chain.RPCURL, "http", "ws"); err != nil {
		return fmt.Errorf("chain.rpc_url: %w", err)
	}
	if c.Chain.WSURL != "" {
		if err := validateURL(c.Chain.WSURL, "ws"); err != nil {
			return fmt.Errorf("chain.ws_url: %w", err)
		}
	}
	if c.Contracts.PoolManager == "" {
		return errors.New("contracts.pool_manager is required")
	}
	for name, addr := range map[string]string{
		"contracts.pool_manager":   c.Contracts.PoolManager,
		"contracts.router":         c.Contracts.Router,
		"contracts.wrapped_native": c.Contracts.WrappedNative,
	} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%s: invalid address %q", name, addr)
		}
	}
	if c.Swap.SlippagePercent < 0 || c.Swap.SlippagePercent >= 100 {
		return fmt.Errorf("swap.slippage_percent must be in [0,100), got %d", c.Swap.SlippagePercent)
	}
	if c.Tracker.FetchConcurrency <= 0 {
		return errors.New("tracker.fetch_concurrency must be positive")
	}
	if c.Tracker.EmptyPollInterval <= 0 {
		return errors.New("tracker.empty_poll_interval must be positive")
	}
	if c.Swap.ApprovalPollInterval <= 0 {
		return errors.New("swap.approval_poll_interval must be positive")
	}
	if c.Activity.Limit <= 0 {
		return errors.New("activity.limit must be positive")
	}
	return nil
}

// ValidateServer additionally requires persistence settings for the HTTP service.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.UseMemory && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required unless use_memory is set")
	}
	return nil
}

// SubscribeURL returns the endpoint used for log subscriptions.
func (c *Config) SubscribeURL() string {
	if c.Chain.WSURL != "" {
		return c.Chain.WSURL
	}
	return c.Chain.RPCURL
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	for _, s := range schemes {
		if strings.HasPrefix(u.Scheme, s) {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
