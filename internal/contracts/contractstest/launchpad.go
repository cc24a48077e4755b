// Package contractstest simulates the launchpad contracts on a
// chaintest.Backend: a pool manager, presale pools with their tokens and a
// router.
package contractstest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/chain/chaintest"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
)

// Fixed addresses of the simulated deployment.
var (
	ManagerAddress = common.HexToAddress("0x7173b2ea0c27fa242b441da725e0be8f342add80")
	RouterAddress  = common.HexToAddress("0xbb5e1777a331ed93e07cf043363e48d320eb96c4")
	WrappedAddress = common.HexToAddress("0x0000000000000000000000000000000000007e7e")
)

type poolState struct {
	config      domain.PoolConfig
	stats       domain.PresaleStats
	finalizable bool
	failing     bool
}

type tokenState struct {
	balances      map[common.Address]*big.Int
	allowances    map[[2]common.Address]*big.Int
	pending       map[[2]common.Address]*big.Int
	approvalDelay int
	reads         map[[2]common.Address]int
}

// Launchpad is a simulated deployment.
type Launchpad struct {
	Backend *chaintest.Backend

	mu     sync.Mutex
	pools  []common.Address
	state  map[common.Address]*poolState
	tokens map[common.Address]*tokenState
	next   uint64

	// ApprovalDelay is the number of allowance reads after an approve
	// before the new allowance becomes visible, for tokens added later.
	ApprovalDelay int

	// QuoteNumerator/QuoteDenominator price every router hop.
	QuoteNumerator   int64
	QuoteDenominator int64

	listFails bool
}

// New deploys the pool manager and router on a fresh backend.
func New() *Launchpad {
	l := &Launchpad{
		Backend:          chaintest.New(31337),
		state:            make(map[common.Address]*poolState),
		tokens:           make(map[common.Address]*tokenState),
		next:             0x1000,
		QuoteNumerator:   2,
		QuoteDenominator: 1,
	}

	b := l.Backend
	b.Deploy(ManagerAddress, contracts.PoolManagerABI)
	b.HandleCall(ManagerAddress, "getAllPresales", func(chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.listFails {
			return nil, errors.New("execution reverted: list unavailable")
		}
		return []any{append([]common.Address{}, l.pools...)}, nil
	})
	b.HandleCall(ManagerAddress, "isFinalizable", func(c chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s, ok := l.state[c.Args[0].(common.Address)]
		return []any{ok && s.finalizable}, nil
	})
	b.HandleTx(ManagerAddress, "createPresale", l.createPresale)

	b.Deploy(RouterAddress, contracts.RouterABI)
	b.HandleCall(RouterAddress, "getAmountsOut", func(c chaintest.Call) ([]any, error) {
		return []any{l.amountsOut(c.Args[0].(*big.Int), c.Args[1].([]common.Address))}, nil
	})
	b.HandleTx(RouterAddress, "swapExactETHForTokens", l.swapETHForTokens)
	b.HandleTx(RouterAddress, "swapExactTokensForETH", l.swapTokensForETH)

	return l
}

func (l *Launchpad) newAddress() common.Address {
	l.next++
	return common.BigToAddress(new(big.Int).SetUint64(l.next))
}

// AddPresale deploys a pool (and its token when cfg.Token is zero) and
// appends it to the manager list.
func (l *Launchpad) AddPresale(cfg domain.PoolConfig, stats domain.PresaleStats) (pool, token common.Address) {
	l.mu.Lock()
	pool = l.newAddress()
	if cfg.Token == (common.Address{}) {
		cfg.Token = l.newAddress()
	}
	token = cfg.Token
	l.mu.Unlock()

	l.deployPool(pool, cfg, stats)
	l.deployToken(token)

	l.mu.Lock()
	l.pools = append(l.pools, pool)
	l.mu.Unlock()
	return pool, token
}

func (l *Launchpad) deployPool(pool common.Address, cfg domain.PoolConfig, stats domain.PresaleStats) {
	l.mu.Lock()
	l.state[pool] = &poolState{config: cfg, stats: stats}
	l.mu.Unlock()

	b := l.Backend
	b.Deploy(pool, contracts.PoolABI)
	b.HandleCall(pool, "getPoolData", func(chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s := l.state[pool]
		if s.failing {
			return nil, errors.New("execution reverted")
		}
		return []any{contracts.PresaleTupleFromDomain(s.config)}, nil
	})
	b.HandleCall(pool, "_presaleStats", func(chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s := l.state[pool]
		if s.failing {
			return nil, errors.New("execution reverted")
		}
		return []any{contracts.StatsTupleFromDomain(s.stats)}, nil
	})
	b.HandleTx(pool, "contribute", func(c chaintest.Call) ([]types.Log, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s := l.state[pool]
		s.stats.TotalContributed = add(s.stats.TotalContributed, c.Value)
		minted := domain.TokensForContribution(c.Value, s.config.PresaleRate)
		s.stats.TotalTokenAmount = add(s.stats.TotalTokenAmount, minted)
		l.credit(s.config.Token, c.From, minted)
		return nil, nil
	})
	b.HandleTx(pool, "finalize", func(chaintest.Call) ([]types.Log, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s := l.state[pool]
		if s.stats.IsFinalized {
			return nil, errors.New("already finalized")
		}
		s.stats.IsFinalized = true
		return nil, nil
	})
	b.HandleTx(pool, "expressWithdrawal", func(c chaintest.Call) ([]types.Log, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		s := l.state[pool]
		if t, ok := l.tokens[s.config.Token]; ok {
			delete(t.balances, c.From)
		}
		return nil, nil
	})
}

func (l *Launchpad) deployToken(token common.Address) {
	l.mu.Lock()
	if _, ok := l.tokens[token]; ok {
		l.mu.Unlock()
		return
	}
	l.tokens[token] = &tokenState{
		balances:      make(map[common.Address]*big.Int),
		allowances:    make(map[[2]common.Address]*big.Int),
		pending:       make(map[[2]common.Address]*big.Int),
		reads:         make(map[[2]common.Address]int),
		approvalDelay: l.ApprovalDelay,
	}
	l.mu.Unlock()

	b := l.Backend
	b.Deploy(token, contracts.ERC20ABI)
	b.HandleCall(token, "balanceOf", func(c chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		return []any{copyOrZero(l.tokens[token].balances[c.Args[0].(common.Address)])}, nil
	})
	b.HandleCall(token, "allowance", func(c chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		t := l.tokens[token]
		key := [2]common.Address{c.Args[0].(common.Address), c.Args[1].(common.Address)}
		if p, ok := t.pending[key]; ok {
			t.reads[key]++
			if t.reads[key] > t.approvalDelay {
				t.allowances[key] = p
				delete(t.pending, key)
			}
		}
		return []any{copyOrZero(t.allowances[key])}, nil
	})
	b.HandleTx(token, "approve", func(c chaintest.Call) ([]types.Log, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		t := l.tokens[token]
		key := [2]common.Address{c.From, c.Args[0].(common.Address)}
		t.pending[key] = new(big.Int).Set(c.Args[1].(*big.Int))
		t.reads[key] = 0
		return nil, nil
	})
	b.Returns(token, "decimals", uint8(18))
	b.HandleCall(token, "totalSupply", func(chaintest.Call) ([]any, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		total := new(big.Int)
		for _, v := range l.tokens[token].balances {
			total.Add(total, v)
		}
		return []any{total}, nil
	})
}

func (l *Launchpad) createPresale(c chaintest.Call) ([]types.Log, error) {
	params := contracts.ConvertPresaleTuple(c.Args[0])
	l.mu.Lock()
	pool := l.newAddress()
	token := l.newAddress()
	l.mu.Unlock()

	cfg := params.ToDomain()
	cfg.Token = token
	l.deployPool(pool, cfg, domain.PresaleStats{})
	l.deployToken(token)

	l.mu.Lock()
	l.pools = append(l.pools, pool)
	l.mu.Unlock()

	return []types.Log{PresaleCreatedLog(pool, c.From, token)}, nil
}

// PresaleCreatedLog builds the log the manager emits for a new pool.
func PresaleCreatedLog(pool, creator, token common.Address) types.Log {
	ev := contracts.PoolManagerABI.Events[contracts.PresaleCreatedEvent]
	data, err := ev.Inputs.NonIndexed().Pack(pool, token)
	if err != nil {
		panic(err)
	}
	return types.Log{
		Address: ManagerAddress,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(creator.Bytes())},
		Data:    data,
	}
}

// Announce emits PresaleCreated for an existing pool to live subscribers.
func (l *Launchpad) Announce(pool common.Address) types.Log {
	l.mu.Lock()
	token := l.state[pool].config.Token
	l.mu.Unlock()
	return l.Backend.Emit(PresaleCreatedLog(pool, common.Address{}, token))
}

// TransferLog builds an ERC20 Transfer log.
func TransferLog(token, from, to common.Address, value *big.Int, block uint64, txHash common.Hash) types.Log {
	ev := contracts.ERC20ABI.Events[contracts.TransferEvent]
	data, err := ev.Inputs.NonIndexed().Pack(value)
	if err != nil {
		panic(err)
	}
	return types.Log{
		Address:     token,
		Topics:      []common.Hash{ev.ID, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash,
	}
}

func (l *Launchpad) amountsOut(in *big.Int, path []common.Address) []*big.Int {
	amounts := []*big.Int{new(big.Int).Set(in)}
	cur := new(big.Int).Set(in)
	for range path[1:] {
		cur = new(big.Int).Mul(cur, big.NewInt(l.QuoteNumerator))
		cur.Quo(cur, big.NewInt(l.QuoteDenominator))
		amounts = append(amounts, cur)
	}
	return amounts
}

func (l *Launchpad) swapETHForTokens(c chaintest.Call) ([]types.Log, error) {
	minOut := c.Args[0].(*big.Int)
	path := c.Args[1].([]common.Address)
	to := c.Args[2].(common.Address)
	amounts := l.amountsOut(c.Value, path)
	out := amounts[len(amounts)-1]
	if out.Cmp(minOut) < 0 {
		return nil, errors.New("INSUFFICIENT_OUTPUT_AMOUNT")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(path[len(path)-1], to, out)
	return nil, nil
}

func (l *Launchpad) swapTokensForETH(c chaintest.Call) ([]types.Log, error) {
	amountIn := c.Args[0].(*big.Int)
	path := c.Args[2].([]common.Address)
	token := path[0]

	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[token]
	if !ok {
		return nil, fmt.Errorf("unknown token %s", token.Hex())
	}
	key := [2]common.Address{c.From, RouterAddress}
	if t.allowances[key] == nil || t.allowances[key].Cmp(amountIn) < 0 {
		return nil, errors.New("TRANSFER_FROM_FAILED")
	}
	if t.balances[c.From] == nil || t.balances[c.From].Cmp(amountIn) < 0 {
		return nil, errors.New("insufficient balance")
	}
	t.allowances[key] = new(big.Int).Sub(t.allowances[key], amountIn)
	t.balances[c.From] = new(big.Int).Sub(t.balances[c.From], amountIn)
	return nil, nil
}

// credit must be called with l.mu held.
func (l *Launchpad) credit(token, holder common.Address, amount *big.Int) {
	t, ok := l.tokens[token]
	if !ok {
		return
	}
	t.balances[holder] = add(t.balances[holder], amount)
}

// SetListFails makes getAllPresales revert while v is true.
func (l *Launchpad) SetListFails(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listFails = v
}

// SetStats replaces a pool's stats.
func (l *Launchpad) SetStats(pool common.Address, stats domain.PresaleStats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state[pool].stats = stats
}

// SetFinalizable sets the manager's isFinalizable answer for pool.
func (l *Launchpad) SetFinalizable(pool common.Address, v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state[pool].finalizable = v
}

// FailPool makes every read of pool revert.
func (l *Launchpad) FailPool(pool common.Address, failing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state[pool].failing = failing
}

// SetTokenBalance sets holder's balance of token.
func (l *Launchpad) SetTokenBalance(token, holder common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[token].balances[holder] = new(big.Int).Set(amount)
}

// TokenBalance returns holder's balance of token.
func (l *Launchpad) TokenBalance(token, holder common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyOrZero(l.tokens[token].balances[holder])
}

// SetAllowance sets a visible allowance.
func (l *Launchpad) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens[token].allowances[[2]common.Address{owner, spender}] = new(big.Int).Set(amount)
}

// Stats returns the current stats of pool.
func (l *Launchpad) Stats(pool common.Address) domain.PresaleStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[pool].stats
}

// Config returns the configuration of pool.
func (l *Launchpad) Config(pool common.Address) domain.PoolConfig {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state[pool].config
}

// Pools returns the manager list.
func (l *Launchpad) Pools() []common.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]common.Address{}, l.pools...)
}

func add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(copyOrZero(a), copyOrZero(b))
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// Transactor returns a funded transactor on the fixture backend.
func (l *Launchpad) Transactor(tb testing.TB) *chain.Transactor {
	tb.Helper()
	key, addr := chaintest.NewKey()
	l.Backend.SetBalance(addr, new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil))
	t, err := chain.NewTransactor(context.Background(), l.Backend, key, 0)
	if err != nil {
		tb.Fatalf("new transactor: %v", err)
	}
	return t
}
