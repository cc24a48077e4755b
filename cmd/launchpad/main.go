// Package main is the launchpad operator CLI: browse presales, create and
// fund them, and trade listed tokens through the router.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/config"
	"core-launchpad/internal/logging"
	"core-launchpad/internal/presale"
	"core-launchpad/internal/storage"
	"core-launchpad/internal/storage/memory"
	pgstore "core-launchpad/internal/storage/postgres"
	"core-launchpad/internal/swap"
	"core-launchpad/internal/units"
)

var errNoWallet = errors.New("wallet.private_key is required for this command")

// app carries what commands share. Tests fill cfg and backend directly.
type app struct {
	configPath string

	cfg     *config.Config
	logger  *zap.Logger
	backend chain.Backend
	now     func() time.Time
	wait    chain.WaitOptions

	closers []func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "launchpad",
		Short: "Presale launchpad operator CLI",
		Long: `launchpad talks to the PoolManager, presale pools and the swap router.

Settings come from an optional config file, a .env file and LAUNCHPAD_*
environment variables (e.g. LAUNCHPAD_CHAIN_RPC_URL, LAUNCHPAD_WALLET_PRIVATE_KEY).
Amounts are ether strings such as 0.5.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")

	root.AddCommand(
		newPresalesCmd(a),
		newPositionsCmd(a),
		newActivityCmd(a),
		newQuoteCmd(a),
		newCreateCmd(a),
		newContributeCmd(a),
		newFinalizeCmd(a),
		newWithdrawCmd(a),
		newSwapCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if a.cfg == nil {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		logger, err := logging.New(a.cfg.Log)
		if err != nil {
			return err
		}
		a.logger = logger
		a.closers = append(a.closers, func() { _ = logger.Sync() })
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.backend == nil {
		client, err := chain.Dial(ctx, a.cfg.Chain.RPCURL)
		if err != nil {
			return err
		}
		a.backend = client
		a.closers = append(a.closers, client.Close)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) reader() *presale.Reader {
	return presale.NewReader(a.backend, common.HexToAddress(a.cfg.Contracts.PoolManager), a.now)
}

// transactor returns nil without error when no key is configured.
func (a *app) transactor(ctx context.Context) (*chain.Transactor, error) {
	if a.cfg.Wallet.PrivateKey == "" {
		return nil, nil
	}
	return chain.NewTransactor(ctx, a.backend, a.cfg.Wallet.PrivateKey, a.cfg.Chain.ChainID)
}

func (a *app) requireTransactor(ctx context.Context) (*chain.Transactor, error) {
	t, err := a.transactor(ctx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errNoWallet
	}
	return t, nil
}

func (a *app) service(ctx context.Context, write bool) (*presale.Service, error) {
	var (
		t   *chain.Transactor
		err error
	)
	if write {
		t, err = a.requireTransactor(ctx)
	} else {
		t, err = a.transactor(ctx)
	}
	if err != nil {
		return nil, err
	}
	return presale.NewService(presale.Options{
		Reader:           a.reader(),
		Transactor:       t,
		Wait:             a.wait,
		FetchConcurrency: a.cfg.Tracker.FetchConcurrency,
		Logger:           a.logger,
	}), nil
}

func (a *app) swapper(ctx context.Context, write bool) (*swap.Swapper, error) {
	if a.cfg.Contracts.Router == "" || a.cfg.Contracts.WrappedNative == "" {
		return nil, errors.New("contracts.router and contracts.wrapped_native are required for swaps")
	}
	var t *chain.Transactor
	if write {
		var err error
		if t, err = a.requireTransactor(ctx); err != nil {
			return nil, err
		}
	}
	sc := a.cfg.Swap
	return swap.New(swap.Options{
		Backend:              a.backend,
		Router:               common.HexToAddress(a.cfg.Contracts.Router),
		Wrapped:              common.HexToAddress(a.cfg.Contracts.WrappedNative),
		Transactor:           t,
		SlippagePercent:      sc.SlippagePercent,
		Deadline:             sc.Deadline,
		ApprovalInitialDelay: sc.ApprovalInitialDelay,
		ApprovalPollInterval: sc.ApprovalPollInterval,
		ApprovalTimeout:      sc.ApprovalTimeout,
		Wait:                 a.wait,
		Now:                  a.now,
		Logger:               a.logger,
	}), nil
}

// metadataStore returns the postgres store, or an in-memory one when
// use_memory is set or no DSN is configured.
func (a *app) metadataStore(ctx context.Context) (storage.TokenMetadataStore, bool, error) {
	if a.cfg.UseMemory || a.cfg.Postgres.DSN == "" {
		return memory.NewTokenMetadataStore(), false, nil
	}
	pool, err := pgstore.NewPool(ctx, a.cfg.Postgres.DSN)
	if err != nil {
		return nil, false, err
	}
	a.closers = append(a.closers, pool.Close)
	return pgstore.NewTokenMetadataStore(pool), true, nil
}

func parseAddress(flag, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.Address{}, fmt.Errorf("--%s is required", flag)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", flag, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(flag, value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	wei, err := units.ParseEther(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("--%s must be positive", flag)
	}
	return wei, nil
}

// parseWhen accepts an RFC3339 timestamp or an offset from now such as +1h.
func parseWhen(flag, value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", flag)
	}
	if strings.HasPrefix(value, "+") {
		d, err := time.ParseDuration(value[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
		}
		return now.Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected RFC3339 or +duration: %w", flag, err)
	}
	return t, nil
}
