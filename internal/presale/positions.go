package presale

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
)

// Positions returns the presales in which user holds a non-zero token
// balance, in manager order. Pools that cannot be read are skipped.
func (s *Service) Positions(ctx context.Context, user common.Address) ([]domain.Position, error) {
	pools, err := s.reader.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.reader.Now().Unix()
	results := make([]*domain.Position, len(pools))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, pool := range pools {
		g.Go(func() error {
			pos, err := s.position(gctx, pool, user, now)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("skip position", zap.String("pool", pool.Hex()), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[i] = pos
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	positions := make([]domain.Position, 0, len(results))
	for _, p := range results {
		if p != nil {
			positions = append(positions, *p)
		}
	}
	return positions, nil
}

// position returns nil without error when user holds none of the pool's token.
func (s *Service) position(ctx context.Context, pool, user common.Address, now int64) (*domain.Position, error) {
	backend := s.reader.Backend()
	p := contracts.NewPool(pool, backend)

	cfg, err := p.GetPoolData(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := p.PresaleStats(ctx)
	if err != nil {
		return nil, err
	}
	finalizable, err := s.reader.Manager().IsFinalizable(ctx, pool)
	if err != nil {
		return nil, err
	}
	balance, err := contracts.NewERC20(cfg.Token, backend).BalanceOf(ctx, user)
	if err != nil {
		return nil, err
	}
	if balance.Sign() <= 0 {
		return nil, nil
	}
	poolBalance, err := backend.BalanceAt(ctx, pool, nil)
	if err != nil {
		return nil, fmt.Errorf("pool balance: %w", err)
	}

	data := domain.NewPresaleData(pool, cfg, stats, now)
	return &domain.Position{
		PoolAddress:   pool,
		TokenAddress:  cfg.Token,
		TokenName:     cfg.TokenName,
		TokenSymbol:   cfg.TokenSymbol,
		PresaleRate:   cfg.PresaleRate,
		Status:        domain.ClassifyPosition(now, data.EndTime(), stats.IsFinalized, poolBalance, cfg.Softcap),
		StartTime:     data.StartTime(),
		EndTime:       data.EndTime(),
		Softcap:       cfg.Softcap,
		Hardcap:       cfg.Hardcap,
		PoolBalance:   poolBalance,
		TokenBalance:  balance,
		IsFinalizable: finalizable,
	}, nil
}
