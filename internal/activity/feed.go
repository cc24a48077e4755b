// Package activity builds the recent-transactions feed of a presale token
// from its ERC20 Transfer logs.
package activity

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
)

// DefaultLimit is the feed length when the caller passes no limit.
const DefaultLimit = 5

// maxCachedHeaders bounds the block timestamp cache.
const maxCachedHeaders = 4096

// Feed classifies token transfers relative to their pool.
type Feed struct {
	backend chain.Backend
	logger  *zap.Logger

	mu     sync.Mutex
	blocks map[uint64]int64 // block number -> timestamp, unix ms
}

// NewFeed creates a Feed.
func NewFeed(backend chain.Backend, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		backend: backend,
		logger:  logger.Named("activity"),
		blocks:  make(map[uint64]int64),
	}
}

// ForPool resolves the pool's token and returns its recent transfers.
func (f *Feed) ForPool(ctx context.Context, pool common.Address, limit int) ([]domain.TokenTransfer, error) {
	cfg, err := contracts.NewPool(pool, f.backend).GetPoolData(ctx)
	if err != nil {
		return nil, err
	}
	return f.Recent(ctx, cfg.Token, pool, limit)
}

// Recent returns up to limit transfers of token, newest first, one per
// transaction. Logs are scanned from genesis; block timestamps are only
// fetched for the transfers kept.
func (f *Feed) Recent(ctx context.Context, token, pool common.Address, limit int) ([]domain.TokenTransfer, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	erc := contracts.NewERC20(token, f.backend)
	logs, err := erc.FilterTransfers(ctx, big.NewInt(0))
	if err != nil {
		return nil, err
	}

	transfers := make([]domain.TokenTransfer, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ev, err := erc.ParseTransfer(l)
		if err != nil {
			f.logger.Debug("skip undecodable log", zap.String("tx", l.TxHash.Hex()), zap.Error(err))
			continue
		}
		kind, user := domain.ClassifyTransfer(ev.From, ev.To, pool)
		transfers = append(transfers, domain.TokenTransfer{
			Kind:        kind,
			Amount:      ev.Value,
			TxHash:      l.TxHash,
			User:        user,
			BlockNumber: l.BlockNumber,
			LogIndex:    l.Index,
			From:        ev.From,
			To:          ev.To,
		})
	}

	// block order is timestamp order
	sort.SliceStable(transfers, func(i, j int) bool {
		a, b := transfers[i], transfers[j]
		if a.BlockNumber != b.BlockNumber {
			return a.BlockNumber > b.BlockNumber
		}
		return a.LogIndex > b.LogIndex
	})

	seen := make(map[common.Hash]struct{}, limit)
	out := make([]domain.TokenTransfer, 0, limit)
	for _, t := range transfers {
		if _, dup := seen[t.TxHash]; dup {
			continue
		}
		seen[t.TxHash] = struct{}{}
		ts, err := f.blockTime(ctx, t.BlockNumber)
		if err != nil {
			return nil, err
		}
		t.Timestamp = ts
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *Feed) blockTime(ctx context.Context, number uint64) (int64, error) {
	f.mu.Lock()
	ts, ok := f.blocks[number]
	f.mu.Unlock()
	if ok {
		return ts, nil
	}

	header, err := f.backend.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}
	ts = int64(header.Time) * 1000

	f.mu.Lock()
	if len(f.blocks) >= maxCachedHeaders {
		clear(f.blocks)
	}
	f.blocks[number] = ts
	f.mu.Unlock()
	return ts, nil
}
