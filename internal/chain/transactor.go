package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transactor signs and sends transactions from a single key. Sends are
// serialized so consecutive transactions get consecutive nonces.
type Transactor struct {
	From common.Address

	key     *ecdsa.PrivateKey
	chainID *big.Int
	backend Backend
	mu      sync.Mutex
}

// NewTransactor parses a hex private key (with or without 0x). A zero chainID
// is resolved by asking the backend.
func NewTransactor(ctx context.Context, backend Backend, hexKey string, chainID int64) (*Transactor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	id := big.NewInt(chainID)
	if chainID == 0 {
		id, err = backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("get chain id: %w", err)
		}
	}

	return &Transactor{
		From:    crypto.PubkeyToAddress(key.PublicKey),
		key:     key,
		chainID: id,
		backend: backend,
	}, nil
}

// ChainID returns the chain id transactions are signed for.
func (t *Transactor) ChainID() *big.Int {
	return new(big.Int).Set(t.chainID)
}

// Send builds, signs and submits a transaction calling to with data.
// EIP-1559 fees are used when the head block has a base fee, legacy gas
// pricing otherwise.
func (t *Transactor) Send(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	if value == nil {
		value = new(big.Int)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	nonce, err := t.backend.PendingNonceAt(ctx, t.From)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}

	head, err := t.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get head: %w", err)
	}

	msg := ethereum.CallMsg{From: t.From, To: &to, Value: value, Data: data}

	var txdata types.TxData
	if head.BaseFee != nil {
		tip, err := t.backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(tip, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		msg.GasTipCap, msg.GasFeeCap = tip, feeCap

		gas, err := t.backend.EstimateGas(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		txdata = &types.DynamicFeeTx{
			ChainID:   t.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		}
	} else {
		price, err := t.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("suggest gas price: %w", err)
		}
		msg.GasPrice = price

		gas, err := t.backend.EstimateGas(ctx, msg)
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		txdata = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     data,
		}
	}

	signed, err := types.SignTx(types.NewTx(txdata), types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}
	return signed, nil
}
