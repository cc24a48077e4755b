package contracts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/chain"
)

// PresaleCreatedEvent is the event name emitted by the pool manager.
const PresaleCreatedEvent = "PresaleCreated"

// PoolManager wraps the presale factory contract.
type PoolManager struct {
	*chain.Contract
}

// NewPoolManager binds the pool manager at addr.
func NewPoolManager(addr common.Address, backend chain.Backend) *PoolManager {
	return &PoolManager{chain.NewContract(addr, PoolManagerABI, backend)}
}

// GetAllPresales returns every presale pool in creation order.
func (m *PoolManager) GetAllPresales(ctx context.Context) ([]common.Address, error) {
	out, err := m.Call(ctx, "getAllPresales")
	if err != nil {
		return nil, err
	}
	return *abiConvert[[]common.Address](out[0]), nil
}

// IsFinalizable reports whether the manager allows finalizing pool.
func (m *PoolManager) IsFinalizable(ctx context.Context, pool common.Address) (bool, error) {
	out, err := m.Call(ctx, "isFinalizable", pool)
	if err != nil {
		return false, err
	}
	return *abiConvert[bool](out[0]), nil
}

// CreatePresale sends createPresale with the given parameters.
func (m *PoolManager) CreatePresale(ctx context.Context, t *chain.Transactor, params PresaleTuple) (*types.Transaction, error) {
	return m.Transact(ctx, t, nil, "createPresale", params)
}

// WatchPresaleCreated subscribes to PresaleCreated logs.
func (m *PoolManager) WatchPresaleCreated(ctx context.Context, sink chan<- types.Log) (ethereum.Subscription, error) {
	return m.WatchLogs(ctx, PresaleCreatedEvent, sink)
}

// PresaleCreated is a decoded PresaleCreated event.
type PresaleCreated struct {
	PresaleAddress common.Address
	Creator        common.Address
	Token          common.Address
	Raw            types.Log
}

// ParsePresaleCreated decodes a PresaleCreated log.
func (m *PoolManager) ParsePresaleCreated(l types.Log) (*PresaleCreated, error) {
	ev := m.ABI.Events[PresaleCreatedEvent]
	if len(l.Topics) == 0 || l.Topics[0] != ev.ID {
		return nil, fmt.Errorf("log is not %s", PresaleCreatedEvent)
	}
	values, err := ev.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", PresaleCreatedEvent, err)
	}
	created := &PresaleCreated{
		PresaleAddress: *abiConvert[common.Address](values[0]),
		Token:          *abiConvert[common.Address](values[1]),
		Raw:            l,
	}
	if len(l.Topics) > 1 {
		created.Creator = common.BytesToAddress(l.Topics[1].Bytes())
	}
	return created, nil
}

// PoolAddressFromReceipt finds the created pool in a createPresale receipt.
// A decodable PresaleCreated log wins; otherwise the first 32-byte data word
// of a log emitted by the manager is read as an address. ok is false when
// neither is present.
func (m *PoolManager) PoolAddressFromReceipt(receipt *types.Receipt) (common.Address, bool) {
	for _, l := range receipt.Logs {
		if l.Address != m.Address {
			continue
		}
		if ev, err := m.ParsePresaleCreated(*l); err == nil && ev.PresaleAddress != (common.Address{}) {
			return ev.PresaleAddress, true
		}
	}
	for _, l := range receipt.Logs {
		if l.Address != m.Address || len(l.Data) < 32 {
			continue
		}
		word := l.Data[:32]
		// an address word is left padded with 12 zero bytes
		if !bytes.Equal(word[:12], make([]byte, 12)) {
			continue
		}
		if addr := common.BytesToAddress(word[12:]); addr != (common.Address{}) {
			return addr, true
		}
	}
	return common.Address{}, false
}
