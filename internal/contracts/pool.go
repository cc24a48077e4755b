package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/domain"
)

// Pool wraps a single presale pool contract.
type Pool struct {
	*chain.Contract
}

// NewPool binds the pool at addr.
func NewPool(addr common.Address, backend chain.Backend) *Pool {
	return &Pool{chain.NewContract(addr, PoolABI, backend)}
}

// GetPoolData returns the pool configuration.
func (p *Pool) GetPoolData(ctx context.Context) (domain.PoolConfig, error) {
	out, err := p.Call(ctx, "getPoolData")
	if err != nil {
		return domain.PoolConfig{}, err
	}
	return abiConvert[PresaleTuple](out[0]).ToDomain(), nil
}

// PresaleStats returns the pool accounting and finalized flag.
func (p *Pool) PresaleStats(ctx context.Context) (domain.PresaleStats, error) {
	out, err := p.Call(ctx, "_presaleStats")
	if err != nil {
		return domain.PresaleStats{}, err
	}
	return abiConvert[StatsTuple](out[0]).ToDomain(), nil
}

// Contribute sends value to the pool.
func (p *Pool) Contribute(ctx context.Context, t *chain.Transactor, value *big.Int) (*types.Transaction, error) {
	return p.Transact(ctx, t, value, "contribute")
}

// Finalize closes a successful presale.
func (p *Pool) Finalize(ctx context.Context, t *chain.Transactor) (*types.Transaction, error) {
	return p.Transact(ctx, t, nil, "finalize")
}

// ExpressWithdrawal withdraws the caller's contribution.
func (p *Pool) ExpressWithdrawal(ctx context.Context, t *chain.Transactor) (*types.Transaction, error) {
	return p.Transact(ctx, t, nil, "expressWithdrawal")
}
