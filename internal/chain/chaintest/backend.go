// Package chaintest provides an in-process chain.Backend for tests. Contract
// calls are dispatched by ABI method id to Go handlers and their results are
// encoded with the real ABI codec, so bindings are exercised end to end.
package chaintest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"core-launchpad/internal/chain"
)

// Call is a decoded contract invocation.
type Call struct {
	From   common.Address
	To     common.Address
	Value  *big.Int
	Method string
	Args   []any
}

// Handler answers a read-only call with the method outputs.
type Handler func(call Call) ([]any, error)

// TxHandler executes a state changing call. The returned logs are attached to
// the receipt; a non-nil error produces a reverted receipt.
type TxHandler func(call Call) ([]types.Log, error)

type contract struct {
	abi        abi.ABI
	handlers   map[string]Handler
	txHandlers map[string]TxHandler
}

// Backend is a scriptable chain.Backend.
type Backend struct {
	mu        sync.Mutex
	chainID   *big.Int
	head      uint64
	baseFee   *big.Int
	contracts map[common.Address]*contract
	balances  map[common.Address]*big.Int
	nonces    map[common.Address]uint64
	headers   map[uint64]*types.Header
	logs      []types.Log
	receipts  map[common.Hash]*types.Receipt
	pending   map[common.Hash]int
	calls     []Call
	sent      []Call
	subs      []*Subscription
	subCalls  int
	dropErr   error

	// ReceiptDelay is the number of receipt polls answered with NotFound
	// before a sent transaction's receipt is returned.
	ReceiptDelay int

	// SubscribeErr, when set, fails SubscribeFilterLogs.
	SubscribeErr error
}

var _ chain.Backend = (*Backend)(nil)

// New creates a backend at block 1 with an EIP-1559 base fee.
func New(chainID int64) *Backend {
	return &Backend{
		chainID:   big.NewInt(chainID),
		head:      1,
		baseFee:   big.NewInt(1_000_000_000),
		contracts: make(map[common.Address]*contract),
		balances:  make(map[common.Address]*big.Int),
		nonces:    make(map[common.Address]uint64),
		headers:   make(map[uint64]*types.Header),
		receipts:  make(map[common.Hash]*types.Receipt),
		pending:   make(map[common.Hash]int),
	}
}

// Deploy registers a contract ABI at addr.
func (b *Backend) Deploy(addr common.Address, parsed abi.ABI) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contracts[addr] = &contract{
		abi:        parsed,
		handlers:   make(map[string]Handler),
		txHandlers: make(map[string]TxHandler),
	}
}

// HandleCall installs a read handler for method on the contract at addr.
func (b *Backend) HandleCall(addr common.Address, method string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustContract(addr).handlers[method] = h
}

// HandleTx installs a transaction handler for method on the contract at addr.
func (b *Backend) HandleTx(addr common.Address, method string, h TxHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustContract(addr).txHandlers[method] = h
}

// Returns answers method with fixed outputs.
func (b *Backend) Returns(addr common.Address, method string, outputs ...any) {
	b.HandleCall(addr, method, func(Call) ([]any, error) { return outputs, nil })
}

func (b *Backend) mustContract(addr common.Address) *contract {
	c, ok := b.contracts[addr]
	if !ok {
		panic(fmt.Sprintf("chaintest: no contract deployed at %s", addr.Hex()))
	}
	return c
}

// SetBalance sets the native balance of addr.
func (b *Backend) SetBalance(addr common.Address, wei *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances[addr] = new(big.Int).Set(wei)
}

// SetHeader fixes the timestamp of a block.
func (b *Backend) SetHeader(number, timestamp uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.headers[number] = &types.Header{Number: new(big.Int).SetUint64(number), Time: timestamp, BaseFee: b.baseFee}
	if number > b.head {
		b.head = number
	}
}

// DisableBaseFee makes the head block look pre-London so legacy transactions are used.
func (b *Backend) DisableBaseFee() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.baseFee = nil
}

// Emit appends a log at the next block and delivers it to matching subscribers.
func (b *Backend) Emit(l types.Log) types.Log {
	b.mu.Lock()
	b.head++
	if l.BlockNumber == 0 {
		l.BlockNumber = b.head
	}
	l.Index = uint(len(b.logs))
	b.logs = append(b.logs, l)
	subs := append([]*Subscription(nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.matches(l) {
			s.deliver(l)
		}
	}
	return l
}

// AddLog appends a historical log without notifying subscribers.
func (b *Backend) AddLog(l types.Log) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l.BlockNumber > b.head {
		b.head = l.BlockNumber
	}
	b.logs = append(b.logs, l)
}

// Calls returns the read calls made so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount returns how many read calls were made to method.
func (b *Backend) CallCount(method string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Sent returns the decoded transactions sent so far.
func (b *Backend) Sent() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.sent...)
}

// Subscriptions returns the number of live log subscriptions.
func (b *Backend) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subs {
		if !s.closed() {
			n++
		}
	}
	return n
}

// FailSubscriptions reports err on every live subscription.
func (b *Backend) FailSubscriptions(err error) {
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.subs...)
	b.mu.Unlock()
	for _, s := range subs {
		s.fail(err)
	}
}

// DropNewSubscriptions makes every later subscription fail with err right
// after it is established. A nil err restores normal subscriptions.
func (b *Backend) DropNewSubscriptions(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropErr = err
}

// SubscribeCalls returns how many subscriptions were established.
func (b *Backend) SubscribeCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subCalls
}

func (b *Backend) decode(from common.Address, to *common.Address, value *big.Int, data []byte) (*contract, *abi.Method, Call, error) {
	call := Call{From: from, Value: value}
	if to == nil {
		return nil, nil, call, errors.New("contract creation not supported")
	}
	call.To = *to
	c, ok := b.contracts[*to]
	if !ok {
		return nil, nil, call, nil
	}
	if len(data) < 4 {
		return c, nil, call, errors.New("missing method selector")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return c, nil, call, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return c, nil, call, fmt.Errorf("unpack %s args: %w", method.Name, err)
	}
	call.Method = method.Name
	call.Args = args
	return c, method, call, nil
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	c, method, call, err := b.decode(msg.From, msg.To, msg.Value, msg.Data)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if c == nil {
		b.mu.Unlock()
		return nil, nil
	}
	b.calls = append(b.calls, call)
	h, ok := c.handlers[method.Name]
	b.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("execution reverted: no handler for %s", method.Name)
	}
	outputs, err := h(call)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if matchQuery(q, l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (b *Backend) SubscribeFilterLogs(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SubscribeErr != nil {
		return nil, b.SubscribeErr
	}
	b.subCalls++
	s := newSubscription(q, ch)
	if b.dropErr != nil {
		s.fail(b.dropErr)
		return s, nil
	}
	b.subs = append(b.subs, s)
	return s, nil
}

func (b *Backend) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.head
	if number != nil {
		n = number.Uint64()
	}
	if h, ok := b.headers[n]; ok {
		return types.CopyHeader(h), nil
	}
	return &types.Header{
		Number:  new(big.Int).SetUint64(n),
		Time:    1_700_000_000 + n*12,
		BaseFee: b.baseFee,
	}, nil
}

func (b *Backend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[account]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 150_000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("recover sender: %w", err)
	}

	b.mu.Lock()
	if tx.Nonce() != b.nonces[from] {
		b.mu.Unlock()
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++

	c, method, call, err := b.decode(from, tx.To(), tx.Value(), tx.Data())
	if err != nil {
		b.mu.Unlock()
		return err
	}
	var h TxHandler
	if c != nil && method != nil {
		h = c.txHandlers[method.Name]
	}
	b.sent = append(b.sent, call)
	b.mu.Unlock()

	status := types.ReceiptStatusSuccessful
	var logs []types.Log
	if h != nil {
		logs, err = h(call)
		if err != nil {
			status = types.ReceiptStatusFailed
			logs = nil
		}
	} else if c != nil && method != nil {
		status = types.ReceiptStatusFailed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.head++
	if status == types.ReceiptStatusSuccessful && tx.Value().Sign() > 0 {
		bal := b.balances[call.To]
		if bal == nil {
			bal = new(big.Int)
		}
		b.balances[call.To] = new(big.Int).Add(bal, tx.Value())
	}

	receipt := &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.head),
		GasUsed:     tx.Gas(),
	}
	for i := range logs {
		l := logs[i]
		if l.Address == (common.Address{}) {
			l.Address = call.To
		}
		l.TxHash = tx.Hash()
		l.BlockNumber = b.head
		l.Index = uint(len(b.logs))
		b.logs = append(b.logs, l)
		receipt.Logs = append(receipt.Logs, &l)
	}
	b.receipts[tx.Hash()] = receipt
	b.pending[tx.Hash()] = b.ReceiptDelay
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if b.pending[hash] > 0 {
		b.pending[hash]--
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head, nil
}

func matchQuery(q ethereum.FilterQuery, l types.Log) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, a := range q.Addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for i, alternatives := range q.Topics {
		if len(alternatives) == 0 {
			continue
		}
		if i >= len(l.Topics) {
			return false
		}
		found := false
		for _, t := range alternatives {
			if t == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// NewKey returns a fresh hex private key and its address.
func NewKey() (string, common.Address) {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey)
}
