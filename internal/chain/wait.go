package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// WaitOptions tunes receipt polling.
type WaitOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Timeout         time.Duration
}

// DefaultWaitOptions suits chains with block times of a few seconds.
var DefaultWaitOptions = WaitOptions{
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     4 * time.Second,
	Timeout:         3 * time.Minute,
}

var errPending = errors.New("transaction pending")

// WaitMined polls for the receipt of hash until it is mined, ctx is done or
// the timeout elapses. A receipt with failed status returns ErrTxReverted
// together with the receipt.
func WaitMined(ctx context.Context, backend Backend, hash common.Hash, opts WaitOptions) (*types.Receipt, error) {
	if opts.InitialInterval <= 0 {
		opts = DefaultWaitOptions
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = opts.InitialInterval
	policy.MaxInterval = opts.MaxInterval

	receipt, err := backoff.Retry(ctx, func() (*types.Receipt, error) {
		r, err := backend.TransactionReceipt(ctx, hash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, errPending
		}
		if err != nil {
			return nil, err
		}
		return r, nil
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", hash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%s: %w", hash.Hex(), ErrTxReverted)
	}
	return receipt, nil
}
