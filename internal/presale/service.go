package presale

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
)

// ErrNotFinalizable is returned when the manager refuses to finalize a pool.
var ErrNotFinalizable = errors.New("presale is not finalizable")

// ErrNoTransactor is returned by write operations on a read-only service.
var ErrNoTransactor = errors.New("no wallet configured")

// Service sends participant transactions and builds positions.
type Service struct {
	reader      *Reader
	transactor  *chain.Transactor
	wait        chain.WaitOptions
	concurrency int
	logger      *zap.Logger
}

// Options for creating a Service.
type Options struct {
	Reader     *Reader
	Transactor *chain.Transactor // nil for read-only use

	Wait             chain.WaitOptions
	FetchConcurrency int // parallel pool reads in Positions; default 8
	Logger           *zap.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Service{
		reader:      opts.Reader,
		transactor:  opts.Transactor,
		wait:        opts.Wait,
		concurrency: concurrency,
		logger:      logger.Named("presale"),
	}
}

// Contribute checks the presale accepts contributions and sends amountWei to it.
// It returns the mined receipt.
func (s *Service) Contribute(ctx context.Context, pool common.Address, amountWei *big.Int) (*types.Receipt, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	if err := checkAmount(amountWei); err != nil {
		return nil, err
	}

	data, err := s.reader.PresaleData(ctx, pool)
	if err != nil {
		return nil, err
	}
	if err := CheckParticipation(data, s.reader.Now().Unix()); err != nil {
		return nil, err
	}

	tx, err := contracts.NewPool(pool, s.reader.Backend()).Contribute(ctx, s.transactor, amountWei)
	if err != nil {
		return nil, err
	}
	s.logger.Info("contribution sent",
		zap.String("pool", pool.Hex()),
		zap.String("amount_wei", amountWei.String()),
		zap.String("tx", tx.Hash().Hex()))
	return s.waitMined(ctx, "contribute", tx)
}

// Finalize finalizes a presale the manager reports as finalizable.
func (s *Service) Finalize(ctx context.Context, pool common.Address) (*types.Receipt, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	ok, err := s.reader.Manager().IsFinalizable(ctx, pool)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFinalizable
	}

	tx, err := contracts.NewPool(pool, s.reader.Backend()).Finalize(ctx, s.transactor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("finalize sent", zap.String("pool", pool.Hex()), zap.String("tx", tx.Hash().Hex()))
	return s.waitMined(ctx, "finalize", tx)
}

// ExpressWithdrawal withdraws the wallet's contribution from a pool.
func (s *Service) ExpressWithdrawal(ctx context.Context, pool common.Address) (*types.Receipt, error) {
	if s.transactor == nil {
		return nil, ErrNoTransactor
	}
	tx, err := contracts.NewPool(pool, s.reader.Backend()).ExpressWithdrawal(ctx, s.transactor)
	if err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal sent", zap.String("pool", pool.Hex()), zap.String("tx", tx.Hash().Hex()))
	return s.waitMined(ctx, "expressWithdrawal", tx)
}

func (s *Service) waitMined(ctx context.Context, method string, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := chain.WaitMined(ctx, s.reader.Backend(), tx.Hash(), s.wait)
	if err != nil {
		return receipt, fmt.Errorf("%s: %w", method, err)
	}
	return receipt, nil
}
