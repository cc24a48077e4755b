// Package swap trades finalized presale tokens against the native asset
// through a UniswapV2 style router.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
)

var (
	// ErrNotFinalized is returned when the presale has not been listed yet.
	ErrNotFinalized = errors.New("presale is not finalized")

	// ErrApprovalTimeout is returned when an approved allowance never became visible.
	ErrApprovalTimeout = errors.New("timed out waiting for token approval")

	// ErrInvalidAmount is returned for a zero or negative input amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNoTransactor is returned by Buy and Sell without a wallet.
	ErrNoTransactor = errors.New("no wallet configured")
)

var errAllowancePending = errors.New("allowance below amount")

// Options for creating a Swapper.
type Options struct {
	Backend    chain.Backend
	Router     common.Address
	Wrapped    common.Address // wrapped native token at the head/tail of every path
	Transactor *chain.Transactor

	SlippagePercent      int // whole percent, clamped to [0, 100]
	Deadline             time.Duration // default 30s
	ApprovalInitialDelay time.Duration
	ApprovalPollInterval time.Duration // default 1s
	ApprovalTimeout      time.Duration // default 2m

	Wait   chain.WaitOptions
	Now    func() time.Time
	Logger *zap.Logger
}

// Swapper quotes and executes router swaps.
type Swapper struct {
	backend    chain.Backend
	router     *contracts.Router
	wrapped    common.Address
	transactor *chain.Transactor

	slippage      int
	deadline      time.Duration
	initialDelay  time.Duration
	pollInterval  time.Duration
	approvalLimit time.Duration

	wait   chain.WaitOptions
	now    func() time.Time
	logger *zap.Logger
}

// New creates a Swapper, filling unset options with defaults.
func New(opts Options) *Swapper {
	s := &Swapper{
		backend:       opts.Backend,
		router:        contracts.NewRouter(opts.Router, opts.Backend),
		wrapped:       opts.Wrapped,
		transactor:    opts.Transactor,
		slippage:      opts.SlippagePercent,
		deadline:      opts.Deadline,
		initialDelay:  opts.ApprovalInitialDelay,
		pollInterval:  opts.ApprovalPollInterval,
		approvalLimit: opts.ApprovalTimeout,
		wait:          opts.Wait,
		now:           opts.Now,
		logger:        opts.Logger,
	}
	if s.deadline <= 0 {
		s.deadline = 30 * time.Second
	}
	if s.pollInterval <= 0 {
		s.pollInterval = time.Second
	}
	if s.approvalLimit <= 0 {
		s.approvalLimit = 2 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("swap")
	return s
}

// Path returns the router path for side: [wrapped, token] to buy and
// [token, wrapped] to sell.
func (s *Swapper) Path(side domain.SwapSide, token common.Address) []common.Address {
	if side == domain.SwapSideSell {
		return []common.Address{token, s.wrapped}
	}
	return []common.Address{s.wrapped, token}
}

// Quote prices amountIn along the side's path and applies the slippage tolerance.
func (s *Swapper) Quote(ctx context.Context, side domain.SwapSide, token common.Address, amountIn *big.Int) (domain.SwapQuote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return domain.SwapQuote{}, ErrInvalidAmount
	}
	path := s.Path(side, token)
	amounts, err := s.router.GetAmountsOut(ctx, amountIn, path)
	if err != nil {
		return domain.SwapQuote{}, fmt.Errorf("quote %s: %w", side, err)
	}
	out := amounts[len(amounts)-1]

	hexPath := make([]string, len(path))
	for i, a := range path {
		hexPath[i] = a.Hex()
	}
	return domain.SwapQuote{
		Side:         side,
		AmountIn:     new(big.Int).Set(amountIn),
		AmountOut:    out,
		MinAmountOut: domain.MinAmountOut(out, s.slippage),
		Path:         hexPath,
	}, nil
}

// Result is the outcome of an executed swap.
type Result struct {
	Quote    domain.SwapQuote
	Approved bool // an approve transaction was sent first
	Receipt  *types.Receipt
}

// Token returns the listed token of a finalized presale.
func (s *Swapper) Token(ctx context.Context, pool common.Address) (common.Address, error) {
	p := contracts.NewPool(pool, s.backend)
	stats, err := p.PresaleStats(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if !stats.IsFinalized {
		return common.Address{}, ErrNotFinalized
	}
	cfg, err := p.GetPoolData(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return cfg.Token, nil
}

// Buy swaps amountIn wei for the token of a finalized presale.
func (s *Swapper) Buy(ctx context.Context, pool common.Address, amountIn *big.Int) (*Result, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	token, err := s.Token(ctx, pool)
	if err != nil {
		return nil, err
	}
	quote, err := s.Quote(ctx, domain.SwapSideBuy, token, amountIn)
	if err != nil {
		return nil, err
	}

	tx, err := s.router.SwapExactETHForTokens(ctx, s.transactor, amountIn, quote.MinAmountOut,
		s.Path(domain.SwapSideBuy, token), s.transactor.From, s.deadlineAt())
	if err != nil {
		return nil, err
	}
	s.logger.Info("buy sent",
		zap.String("token", token.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", quote.MinAmountOut.String()),
		zap.String("tx", tx.Hash().Hex()))

	receipt, err := chain.WaitMined(ctx, s.backend, tx.Hash(), s.wait)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}
	return &Result{Quote: quote, Receipt: receipt}, nil
}

// Sell swaps amountIn tokens of a finalized presale for the native asset,
// approving the router first when the allowance is short.
func (s *Swapper) Sell(ctx context.Context, pool common.Address, amountIn *big.Int) (*Result, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	token, err := s.Token(ctx, pool)
	if err != nil {
		return nil, err
	}
	quote, err := s.Quote(ctx, domain.SwapSideSell, token, amountIn)
	if err != nil {
		return nil, err
	}

	approved, err := s.EnsureAllowance(ctx, token, amountIn)
	if err != nil {
		return nil, err
	}

	tx, err := s.router.SwapExactTokensForETH(ctx, s.transactor, amountIn, quote.MinAmountOut,
		s.Path(domain.SwapSideSell, token), s.transactor.From, s.deadlineAt())
	if err != nil {
		return nil, err
	}
	s.logger.Info("sell sent",
		zap.String("token", token.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", quote.MinAmountOut.String()),
		zap.String("tx", tx.Hash().Hex()))

	receipt, err := chain.WaitMined(ctx, s.backend, tx.Hash(), s.wait)
	if err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}
	return &Result{Quote: quote, Approved: approved, Receipt: receipt}, nil
}

// EnsureAllowance makes sure the router may move amount tokens for the
// wallet. When the allowance is short it sends approve(router, amount), waits
// the initial delay, then polls the allowance until it covers amount. It
// reports whether an approval was sent.
func (s *Swapper) EnsureAllowance(ctx context.Context, token common.Address, amount *big.Int) (bool, error) {
	if s.transactor == nil {
		return false, ErrNoTransactor
	}
	erc := contracts.NewERC20(token, s.backend)
	owner := s.transactor.From
	spender := s.router.Address

	current, err := erc.Allowance(ctx, owner, spender)
	if err != nil {
		return false, err
	}
	if current.Cmp(amount) >= 0 {
		return false, nil
	}

	tx, err := erc.Approve(ctx, s.transactor, spender, amount)
	if err != nil {
		return false, err
	}
	s.logger.Info("approve sent", zap.String("token", token.Hex()), zap.String("tx", tx.Hash().Hex()))

	timer := time.NewTimer(s.initialDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return true, ctx.Err()
	case <-timer.C:
	}

	_, err = backoff.Retry(ctx, func() (*big.Int, error) {
		allowance, err := erc.Allowance(ctx, owner, spender)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if allowance.Cmp(amount) < 0 {
			return nil, errAllowancePending
		}
		return allowance, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.pollInterval)),
		backoff.WithMaxElapsedTime(s.approvalLimit),
	)
	if errors.Is(err, errAllowancePending) {
		return true, fmt.Errorf("%w after %s", ErrApprovalTimeout, s.approvalLimit)
	}
	if err != nil {
		return true, fmt.Errorf("poll allowance: %w", err)
	}
	return true, nil
}

func (s *Swapper) deadlineAt() *big.Int {
	return big.NewInt(s.now().Add(s.deadline).Unix())
}
