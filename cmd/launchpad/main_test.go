package main

import (
	"bytes"
	"io"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/chain/chaintest"
	"core-launchpad/internal/config"
	"core-launchpad/internal/contracts/contractstest"
	"core-launchpad/internal/domain"
)

var (
	now   = time.Unix(1_700_050_000, 0)
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func liveConfig() domain.PoolConfig {
	return domain.PoolConfig{
		PresaleRate: big.NewInt(1000),
		Softcap:     ether(5),
		Hardcap:     ether(10),
		StartTime:   big.NewInt(1_700_000_000),
		EndTime:     big.NewInt(1_700_086_400),
		TokenName:   "Core Cat",
		TokenSymbol: "CCAT",
	}
}

// newTestApp wires the CLI to a simulated deployment. withWallet funds a
// fresh key and configures it.
func newTestApp(t *testing.T, lp *contractstest.Launchpad, withWallet bool) (*app, common.Address) {
	t.Helper()
	cfg := &config.Config{
		UseMemory: true,
		Contracts: config.ContractsConfig{
			PoolManager:   contractstest.ManagerAddress.Hex(),
			Router:        contractstest.RouterAddress.Hex(),
			WrappedNative: contractstest.WrappedAddress.Hex(),
		},
		Tracker:  config.TrackerConfig{FetchConcurrency: 4},
		Swap:     config.SwapConfig{SlippagePercent: 5, Deadline: 30 * time.Second, ApprovalPollInterval: time.Millisecond, ApprovalTimeout: time.Second},
		Activity: config.ActivityConfig{Limit: 5},
	}
	var from common.Address
	if withWallet {
		var key string
		key, from = chaintest.NewKey()
		lp.Backend.SetBalance(from, ether(1000))
		cfg.Wallet.PrivateKey = key
	}
	return &app{
		cfg:     cfg,
		logger:  zap.NewNop(),
		backend: lp.Backend,
		now:     func() time.Time { return now },
		wait:    chain.WaitOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Timeout: time.Second},
	}, from
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPresalesCmd(t *testing.T) {
	lp := contractstest.New()
	live, _ := lp.AddPresale(liveConfig(), domain.PresaleStats{TotalContributed: ether(4)})
	soonCfg := liveConfig()
	soonCfg.StartTime = big.NewInt(now.Unix() + 3600)
	soon, _ := lp.AddPresale(soonCfg, domain.PresaleStats{})
	a, _ := newTestApp(t, lp, false)

	out, err := run(t, a, "presales")
	require.NoError(t, err)
	assert.Contains(t, out, live.Hex())
	assert.Contains(t, out, soon.Hex())
	assert.Contains(t, out, "40%")
	// newest first
	assert.Less(t, strings.Index(out, soon.Hex()), strings.Index(out, live.Hex()))

	out, err = run(t, a, "presales", "--status", "Coming Soon")
	require.NoError(t, err)
	assert.Contains(t, out, soon.Hex())
	assert.NotContains(t, out, live.Hex())

	_, err = run(t, a, "presales", "--status", "Paused")
	assert.Error(t, err)
}

func TestPositionsCmd(t *testing.T) {
	lp := contractstest.New()
	pool, token := lp.AddPresale(liveConfig(), domain.PresaleStats{})
	lp.SetTokenBalance(token, alice, ether(1500))
	a, _ := newTestApp(t, lp, false)

	out, err := run(t, a, "positions", "--user", alice.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, pool.Hex())
	assert.Contains(t, out, "1500.0000")
	assert.Contains(t, out, "Active")

	_, err = run(t, a, "positions")
	assert.Error(t, err, "no user and no wallet")
}

func TestActivityCmd(t *testing.T) {
	lp := contractstest.New()
	pool, token := lp.AddPresale(liveConfig(), domain.PresaleStats{})
	lp.Backend.AddLog(contractstest.TransferLog(token, pool, alice, ether(3), 10, common.BytesToHash([]byte{1})))
	a, _ := newTestApp(t, lp, false)

	out, err := run(t, a, "activity", "--pool", pool.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "buy")
	assert.Contains(t, out, "3.0000")

	_, err = run(t, a, "activity", "--pool", "nope")
	assert.Error(t, err)
}

func TestQuoteCmd(t *testing.T) {
	lp := contractstest.New()
	pool, _ := lp.AddPresale(liveConfig(), domain.PresaleStats{IsFinalized: true})
	a, _ := newTestApp(t, lp, false)

	out, err := run(t, a, "quote", "--pool", pool.Hex(), "--side", "buy", "--amount", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "out:      2\n")
	assert.Contains(t, out, "1.9")

	_, err = run(t, a, "quote", "--pool", pool.Hex(), "--side", "hold", "--amount", "1")
	assert.Error(t, err)
}

func TestCreateCmd(t *testing.T) {
	lp := contractstest.New()
	a, _ := newTestApp(t, lp, true)

	out, err := run(t, a, "create",
		"--name", "Core Cat", "--symbol", "CCAT", "--rate", "1000",
		"--softcap", "5", "--hardcap", "10", "--start", "+10m", "--end", "+48h",
		"--website", "https://corecat.example")
	require.NoError(t, err)

	pools := lp.Pools()
	require.Len(t, pools, 1)
	assert.Contains(t, out, "Presale created")
	assert.Contains(t, out, pools[0].Hex())
	assert.Contains(t, out, "memory only")

	cfg := lp.Config(pools[0])
	assert.Equal(t, 0, big.NewInt(800).Cmp(cfg.ListingRate))
	assert.Equal(t, now.Add(10*time.Minute).Unix(), cfg.StartTime.Int64())
}

func TestCreateCmd_RejectsPastStart(t *testing.T) {
	lp := contractstest.New()
	a, _ := newTestApp(t, lp, true)

	_, err := run(t, a, "create",
		"--name", "Core Cat", "--symbol", "CCAT", "--rate", "1000",
		"--softcap", "5", "--hardcap", "10", "--start", "2020-01-01T00:00:00Z", "--end", "+48h")
	assert.Error(t, err)
	assert.Empty(t, lp.Pools())
	assert.Empty(t, lp.Backend.Sent())
}

func TestContributeCmd(t *testing.T) {
	lp := contractstest.New()
	pool, _ := lp.AddPresale(liveConfig(), domain.PresaleStats{})
	a, _ := newTestApp(t, lp, true)

	out, err := run(t, a, "contribute", "--pool", pool.Hex(), "--amount", "1.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Contributed 1.5")
	assert.Equal(t, 0, lp.Stats(pool).TotalContributed.Cmp(new(big.Int).Div(ether(3), big.NewInt(2))))
}

func TestWriteCommandsRequireWallet(t *testing.T) {
	lp := contractstest.New()
	pool, _ := lp.AddPresale(liveConfig(), domain.PresaleStats{})
	a, _ := newTestApp(t, lp, false)

	for _, args := range [][]string{
		{"contribute", "--pool", pool.Hex(), "--amount", "1"},
		{"finalize", "--pool", pool.Hex()},
		{"withdraw", "--pool", pool.Hex()},
		{"swap", "--pool", pool.Hex(), "--amount", "1"},
	} {
		_, err := run(t, a, args...)
		assert.ErrorIs(t, err, errNoWallet, args[0])
	}
	assert.Empty(t, lp.Backend.Sent())
}

func TestSwapCmd_Buy(t *testing.T) {
	lp := contractstest.New()
	pool, token := lp.AddPresale(liveConfig(), domain.PresaleStats{IsFinalized: true})
	a, from := newTestApp(t, lp, true)

	out, err := run(t, a, "swap", "--pool", pool.Hex(), "--side", "buy", "--amount", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Bought at least 1.9")
	assert.Equal(t, 0, lp.TokenBalance(token, from).Cmp(ether(2)))
}

func TestSwapCmd_NotFinalized(t *testing.T) {
	lp := contractstest.New()
	pool, _ := lp.AddPresale(liveConfig(), domain.PresaleStats{})
	a, _ := newTestApp(t, lp, true)

	_, err := run(t, a, "swap", "--pool", pool.Hex(), "--side", "buy", "--amount", "1")
	assert.Error(t, err)
}

func TestParseWhen(t *testing.T) {
	got, err := parseWhen("start", "+90m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Minute), got)

	got, err = parseWhen("start", "2030-01-02T03:04:05Z", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1893553445), got.Unix())

	_, err = parseWhen("start", "tomorrow", now)
	assert.Error(t, err)
	_, err = parseWhen("start", "", now)
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("amount", "0.25")
	require.NoError(t, err)
	assert.Equal(t, "250000000000000000", v.String())

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := parseAmount("amount", bad)
		assert.Error(t, err, bad)
	}
}

func TestPositionAction(t *testing.T) {
	assert.Equal(t, "finalize", positionAction(domain.Position{Status: domain.PositionReadyToFinalize, IsFinalizable: true}))
	assert.Equal(t, "-", positionAction(domain.Position{Status: domain.PositionReadyToFinalize}))
	assert.Equal(t, "withdraw", positionAction(domain.Position{Status: domain.PositionFailed}))
	assert.Equal(t, "swap", positionAction(domain.Position{Status: domain.PositionFinalized}))
	assert.Equal(t, "-", positionAction(domain.Position{Status: domain.PositionActive}))
}

func TestTableRender(t *testing.T) {
	tbl := newTable(column{"A", 3}, column{"B", 5})
	tbl.addRow("x", "toolongvalue")
	out := tbl.render()
	assert.Contains(t, out, "x  ")
	assert.Contains(t, out, "tool…")
	assert.Equal(t, "0x1234…5678", shortAddr("0x1234abcdef5678"))
}
