package contracts_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/contracts/contractstest"
	"core-launchpad/internal/domain"
)

var fastWait = chain.WaitOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Timeout: time.Second}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func sampleConfig() domain.PoolConfig {
	return domain.PoolConfig{
		PresaleRate:   big.NewInt(1000),
		Softcap:       ether(5),
		Hardcap:       ether(10),
		LiquidityRate: big.NewInt(60),
		ListingRate:   big.NewInt(800),
		StartTime:     big.NewInt(1_700_000_000),
		EndTime:       big.NewInt(1_700_086_400),
		Refund:        true,
		TokenName:     "Core Cat",
		TokenSymbol:   "CCAT",
	}
}

func TestPool_ReadsTuples(t *testing.T) {
	lp := contractstest.New()
	stats := domain.PresaleStats{TotalContributed: ether(3), TotalTokenAmount: big.NewInt(3000), TotalClaimed: big.NewInt(0)}
	addr, token := lp.AddPresale(sampleConfig(), stats)

	pool := contracts.NewPool(addr, lp.Backend)
	ctx := context.Background()

	cfg, err := pool.GetPoolData(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, cfg.Token)
	assert.Equal(t, "Core Cat", cfg.TokenName)
	assert.Equal(t, "CCAT", cfg.TokenSymbol)
	assert.Equal(t, ether(10).String(), cfg.Hardcap.String())
	assert.True(t, cfg.Refund)

	got, err := pool.PresaleStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, ether(3).String(), got.TotalContributed.String())
	assert.False(t, got.IsFinalized)
}

func TestPool_ReadRevert(t *testing.T) {
	lp := contractstest.New()
	addr, _ := lp.AddPresale(sampleConfig(), domain.PresaleStats{})
	lp.FailPool(addr, true)

	_, err := contracts.NewPool(addr, lp.Backend).GetPoolData(context.Background())
	assert.Error(t, err)
}

func TestPool_Contribute(t *testing.T) {
	lp := contractstest.New()
	addr, token := lp.AddPresale(sampleConfig(), domain.PresaleStats{})
	tr := lp.Transactor(t)
	ctx := context.Background()

	tx, err := contracts.NewPool(addr, lp.Backend).Contribute(ctx, tr, ether(1))
	require.NoError(t, err)
	_, err = chain.WaitMined(ctx, lp.Backend, tx.Hash(), fastWait)
	require.NoError(t, err)

	assert.Equal(t, ether(1).String(), lp.Stats(addr).TotalContributed.String())
	assert.Equal(t, new(big.Int).Mul(ether(1), big.NewInt(1000)).String(), lp.TokenBalance(token, tr.From).String())
}

func TestPoolManager_ListAndFinalizable(t *testing.T) {
	lp := contractstest.New()
	a, _ := lp.AddPresale(sampleConfig(), domain.PresaleStats{})
	b, _ := lp.AddPresale(sampleConfig(), domain.PresaleStats{})
	lp.SetFinalizable(b, true)

	m := contracts.NewPoolManager(contractstest.ManagerAddress, lp.Backend)
	ctx := context.Background()

	pools, err := m.GetAllPresales(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{a, b}, pools)

	ok, err := m.IsFinalizable(ctx, a)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = m.IsFinalizable(ctx, b)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPoolManager_CreatePresale(t *testing.T) {
	lp := contractstest.New()
	tr := lp.Transactor(t)
	m := contracts.NewPoolManager(contractstest.ManagerAddress, lp.Backend)
	ctx := context.Background()

	tx, err := m.CreatePresale(ctx, tr, contracts.PresaleTupleFromDomain(sampleConfig()))
	require.NoError(t, err)
	receipt, err := chain.WaitMined(ctx, lp.Backend, tx.Hash(), fastWait)
	require.NoError(t, err)

	pool, ok := m.PoolAddressFromReceipt(receipt)
	require.True(t, ok)
	assert.Equal(t, lp.Pools(), []common.Address{pool})
	assert.Equal(t, "Core Cat", lp.Config(pool).TokenName)

	ev, err := m.ParsePresaleCreated(*receipt.Logs[0])
	require.NoError(t, err)
	assert.Equal(t, pool, ev.PresaleAddress)
	assert.Equal(t, tr.From, ev.Creator)
	assert.Equal(t, lp.Config(pool).Token, ev.Token)
}

func TestPoolAddressFromReceipt_Fallbacks(t *testing.T) {
	m := contracts.NewPoolManager(contractstest.ManagerAddress, nil)
	pool := common.HexToAddress("0x00000000000000000000000000000000000abcde")

	t.Run("raw data word", func(t *testing.T) {
		word := common.LeftPadBytes(pool.Bytes(), 32)
		receipt := &types.Receipt{Logs: []*types.Log{{
			Address: contractstest.ManagerAddress,
			Topics:  []common.Hash{common.HexToHash("0x01")},
			Data:    word,
		}}}
		got, ok := m.PoolAddressFromReceipt(receipt)
		require.True(t, ok)
		assert.Equal(t, pool, got)
	})

	t.Run("other emitter ignored", func(t *testing.T) {
		l := contractstest.PresaleCreatedLog(pool, common.Address{}, common.Address{})
		l.Address = common.HexToAddress("0x02")
		_, ok := m.PoolAddressFromReceipt(&types.Receipt{Logs: []*types.Log{&l}})
		assert.False(t, ok)
	})

	t.Run("no logs", func(t *testing.T) {
		_, ok := m.PoolAddressFromReceipt(&types.Receipt{})
		assert.False(t, ok)
	})
}

func TestRouter_GetAmountsOut(t *testing.T) {
	lp := contractstest.New()
	lp.QuoteNumerator = 3
	r := contracts.NewRouter(contractstest.RouterAddress, lp.Backend)
	token := common.HexToAddress("0x0a")

	amounts, err := r.GetAmountsOut(context.Background(), ether(1), []common.Address{contractstest.WrappedAddress, token})
	require.NoError(t, err)
	require.Len(t, amounts, 2)
	assert.Equal(t, ether(3).String(), amounts[1].String())
}

func TestERC20_TransfersAndAllowance(t *testing.T) {
	lp := contractstest.New()
	_, token := lp.AddPresale(sampleConfig(), domain.PresaleStats{})
	erc := contracts.NewERC20(token, lp.Backend)
	ctx := context.Background()

	holder := common.HexToAddress("0x00000000000000000000000000000000000000b0")
	lp.SetTokenBalance(token, holder, big.NewInt(77))
	bal, err := erc.BalanceOf(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, "77", bal.String())

	dec, err := erc.Decimals(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), dec)

	tr := lp.Transactor(t)
	tx, err := erc.Approve(ctx, tr, contractstest.RouterAddress, big.NewInt(50))
	require.NoError(t, err)
	_, err = chain.WaitMined(ctx, lp.Backend, tx.Hash(), fastWait)
	require.NoError(t, err)
	allowed, err := erc.Allowance(ctx, tr.From, contractstest.RouterAddress)
	require.NoError(t, err)
	assert.Equal(t, "50", allowed.String())

	lp.Backend.AddLog(contractstest.TransferLog(token, common.Address{}, holder, big.NewInt(77), 5, common.HexToHash("0xaa")))
	logs, err := erc.FilterTransfers(ctx, big.NewInt(0))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	tf, err := erc.ParseTransfer(logs[0])
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, tf.From)
	assert.Equal(t, holder, tf.To)
	assert.Equal(t, "77", tf.Value.String())
}
