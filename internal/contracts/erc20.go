package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/chain"
)

// TransferEvent is the ERC20 Transfer event name.
const TransferEvent = "Transfer"

// ERC20 wraps a token contract.
type ERC20 struct {
	*chain.Contract
}

// NewERC20 binds the token at addr.
func NewERC20(addr common.Address, backend chain.Backend) *ERC20 {
	return &ERC20{chain.NewContract(addr, ERC20ABI, backend)}
}

func (e *ERC20) uint256(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := e.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abiConvert[*big.Int](out[0]), nil
}

// BalanceOf returns the token balance of account.
func (e *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return e.uint256(ctx, "balanceOf", account)
}

// Allowance returns how much spender may move on behalf of owner.
func (e *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return e.uint256(ctx, "allowance", owner, spender)
}

// TotalSupply returns the token supply.
func (e *ERC20) TotalSupply(ctx context.Context) (*big.Int, error) {
	return e.uint256(ctx, "totalSupply")
}

// Decimals returns the token decimals.
func (e *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := e.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abiConvert[uint8](out[0]), nil
}

// Approve lets spender move value tokens.
func (e *ERC20) Approve(ctx context.Context, t *chain.Transactor, spender common.Address, value *big.Int) (*types.Transaction, error) {
	return e.Transact(ctx, t, nil, "approve", spender, value)
}

// Transfer is a decoded Transfer event.
type Transfer struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Raw   types.Log
}

// FilterTransfers returns every Transfer log of the token from block from to the latest block.
func (e *ERC20) FilterTransfers(ctx context.Context, from *big.Int) ([]types.Log, error) {
	return e.FilterLogs(ctx, TransferEvent, from, nil)
}

// ParseTransfer decodes a Transfer log.
func (e *ERC20) ParseTransfer(l types.Log) (*Transfer, error) {
	ev := e.ABI.Events[TransferEvent]
	if len(l.Topics) != 3 || l.Topics[0] != ev.ID {
		return nil, fmt.Errorf("log is not %s", TransferEvent)
	}
	values, err := ev.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", TransferEvent, err)
	}
	return &Transfer{
		From:  common.BytesToAddress(l.Topics[1].Bytes()),
		To:    common.BytesToAddress(l.Topics[2].Bytes()),
		Value: *abiConvert[*big.Int](values[0]),
		Raw:   l,
	}, nil
}
