package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/chain/chaintest"
)

const counterABI = `[
	{"type":"function","name":"count","stateMutability":"view","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"bump","stateMutability":"payable","inputs":[{"name":"by","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"Bumped","anonymous":false,"inputs":[{"name":"who","type":"address","indexed":true},{"name":"by","type":"uint256","indexed":false}]}
]`

var fastWait = chain.WaitOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Timeout: time.Second}

func setup(t *testing.T) (*chaintest.Backend, *chain.Contract, *chain.Transactor) {
	t.Helper()
	backend := chaintest.New(31337)
	addr := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	parsed := chain.ParseABI(counterABI)
	backend.Deploy(addr, parsed)

	key, _ := chaintest.NewKey()
	tr, err := chain.NewTransactor(context.Background(), backend, "0x"+key, 0)
	require.NoError(t, err)
	return backend, chain.NewContract(addr, parsed, backend), tr
}

func TestContract_Call(t *testing.T) {
	backend, c, _ := setup(t)
	who := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	backend.HandleCall(c.Address, "count", func(call chaintest.Call) ([]any, error) {
		assert.Equal(t, who, call.Args[0])
		return []any{big.NewInt(42)}, nil
	})

	out, err := c.Call(context.Background(), "count", who)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "42", out[0].(*big.Int).String())
	assert.Equal(t, 1, backend.CallCount("count"))
}

func TestContract_CallNoCode(t *testing.T) {
	backend := chaintest.New(1)
	c := chain.NewContract(common.HexToAddress("0x01"), chain.ParseABI(counterABI), backend)

	_, err := c.Call(context.Background(), "count", common.Address{})
	assert.ErrorIs(t, err, chain.ErrNoCode)
}

func TestContract_TransactAndWait(t *testing.T) {
	backend, c, tr := setup(t)
	backend.ReceiptDelay = 2

	parsed := c.ABI
	backend.HandleTx(c.Address, "bump", func(call chaintest.Call) ([]types.Log, error) {
		data, err := parsed.Events["Bumped"].Inputs.NonIndexed().Pack(call.Args[0])
		if err != nil {
			return nil, err
		}
		return []types.Log{{
			Topics: []common.Hash{parsed.Events["Bumped"].ID, common.BytesToHash(call.From.Bytes())},
			Data:   data,
		}}, nil
	})

	ctx := context.Background()
	tx, err := c.Transact(ctx, tr, big.NewInt(5), "bump", big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())

	receipt, err := chain.WaitMined(ctx, backend, tx.Hash(), fastWait)
	require.NoError(t, err)
	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, c.Address, receipt.Logs[0].Address)

	sent := backend.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, tr.From, sent[0].From)
	assert.Equal(t, "bump", sent[0].Method)
	assert.Equal(t, "5", sent[0].Value.String())

	logs, err := c.FilterLogs(ctx, "Bumped", big.NewInt(0), nil)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	bal, _ := backend.BalanceAt(ctx, c.Address, nil)
	assert.Equal(t, "5", bal.String())
}

func TestTransactor_SequentialNonces(t *testing.T) {
	backend, c, tr := setup(t)
	backend.HandleTx(c.Address, "bump", func(chaintest.Call) ([]types.Log, error) { return nil, nil })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tx, err := c.Transact(ctx, tr, nil, "bump", big.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, uint64(i), tx.Nonce())
	}
}

func TestTransactor_LegacyWithoutBaseFee(t *testing.T) {
	backend, c, tr := setup(t)
	backend.DisableBaseFee()
	backend.HandleTx(c.Address, "bump", func(chaintest.Call) ([]types.Log, error) { return nil, nil })

	tx, err := c.Transact(context.Background(), tr, nil, "bump", big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
}

func TestWaitMined_Reverted(t *testing.T) {
	backend, c, tr := setup(t)
	backend.HandleTx(c.Address, "bump", func(chaintest.Call) ([]types.Log, error) {
		return nil, errors.New("execution reverted")
	})

	ctx := context.Background()
	tx, err := c.Transact(ctx, tr, nil, "bump", big.NewInt(1))
	require.NoError(t, err)

	receipt, err := chain.WaitMined(ctx, backend, tx.Hash(), fastWait)
	assert.ErrorIs(t, err, chain.ErrTxReverted)
	require.NotNil(t, receipt)
	assert.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestWaitMined_ContextCancelled(t *testing.T) {
	backend := chaintest.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.WaitMined(ctx, backend, common.HexToHash("0x01"), fastWait)
	assert.Error(t, err)
}

func TestNewTransactor_InvalidKey(t *testing.T) {
	_, err := chain.NewTransactor(context.Background(), chaintest.New(1), "not-a-key", 1)
	assert.Error(t, err)
}
