package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/observability"
)

// Contract binds a parsed ABI to an address on a backend.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
	backend Backend
}

// NewContract creates a Contract.
func NewContract(address common.Address, parsed abi.ABI, backend Backend) *Contract {
	return &Contract{Address: address, ABI: parsed, backend: backend}
}

// ParseABI parses a JSON ABI definition, panicking on malformed input.
// It is meant for package level ABI constants.
func ParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

// Backend returns the backend the contract calls through.
func (c *Contract) Backend() Backend {
	return c.backend
}

// Call executes a read-only method at the latest block and returns the
// unpacked outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.CallFrom(ctx, common.Address{}, method, args...)
}

// CallFrom is Call with an explicit msg.sender.
func (c *Contract) CallFrom(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	input, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	start := time.Now()
	to := c.Address
	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: input}, nil)
	observability.RecordRPCCall(method, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, c.Address.Hex(), err)
	}
	if len(output) == 0 && len(c.ABI.Methods[method].Outputs) > 0 {
		return nil, fmt.Errorf("call %s on %s: %w", method, c.Address.Hex(), ErrNoCode)
	}

	out, err := c.ABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// Transact packs a state changing call and sends it with value attached.
// The transaction is returned once accepted by the node; use WaitMined for
// the receipt.
func (c *Contract) Transact(ctx context.Context, t *Transactor, value *big.Int, method string, args ...any) (*types.Transaction, error) {
	input, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	tx, err := t.Send(ctx, c.Address, value, input)
	observability.RecordTransaction(method, err)
	if err != nil {
		return nil, fmt.Errorf("send %s to %s: %w", method, c.Address.Hex(), err)
	}
	return tx, nil
}

// FilterLogs returns logs emitted by the contract for an event in [from, to].
// A nil to means the latest block.
func (c *Contract) FilterLogs(ctx context.Context, event string, from, to *big.Int, topics ...[]common.Hash) ([]types.Log, error) {
	ev, ok := c.ABI.Events[event]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", event)
	}
	q := ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   to,
		Addresses: []common.Address{c.Address},
		Topics:    append([][]common.Hash{{ev.ID}}, topics...),
	}
	logs, err := c.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter %s logs: %w", event, err)
	}
	return logs, nil
}

// WatchLogs subscribes to new logs of an event emitted by the contract.
func (c *Contract) WatchLogs(ctx context.Context, event string, sink chan<- types.Log) (ethereum.Subscription, error) {
	ev, ok := c.ABI.Events[event]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", event)
	}
	q := ethereum.FilterQuery{
		Addresses: []common.Address{c.Address},
		Topics:    [][]common.Hash{{ev.ID}},
	}
	sub, err := c.backend.SubscribeFilterLogs(ctx, q, sink)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s logs: %w", event, err)
	}
	return sub, nil
}
