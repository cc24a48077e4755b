// Package presale reads presale pools and drives the participant and creator
// transactions against them.
package presale

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"core-launchpad/internal/chain"
	"core-launchpad/internal/contracts"
	"core-launchpad/internal/domain"
)

// Reader derives PresaleData from on-chain pool state.
type Reader struct {
	backend chain.Backend
	manager *contracts.PoolManager
	now     func() time.Time
}

// NewReader creates a Reader over the pool manager at manager. A nil now uses time.Now.
func NewReader(backend chain.Backend, manager common.Address, now func() time.Time) *Reader {
	if now == nil {
		now = time.Now
	}
	return &Reader{
		backend: backend,
		manager: contracts.NewPoolManager(manager, backend),
		now:     now,
	}
}

// Backend returns the chain backend the reader uses.
func (r *Reader) Backend() chain.Backend {
	return r.backend
}

// Manager returns the bound pool manager.
func (r *Reader) Manager() *contracts.PoolManager {
	return r.manager
}

// Now returns the reader clock.
func (r *Reader) Now() time.Time {
	return r.now()
}

// List returns every pool address known to the manager, oldest first.
func (r *Reader) List(ctx context.Context) ([]common.Address, error) {
	pools, err := r.manager.GetAllPresales(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presales: %w", err)
	}
	return pools, nil
}

// PresaleData reads a pool's configuration and stats and derives its status
// and progress at the reader's current time.
func (r *Reader) PresaleData(ctx context.Context, pool common.Address) (domain.PresaleData, error) {
	p := contracts.NewPool(pool, r.backend)

	var (
		cfg   domain.PoolConfig
		stats domain.PresaleStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = p.GetPoolData(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = p.PresaleStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.PresaleData{}, fmt.Errorf("presale %s: %w", pool.Hex(), err)
	}

	return domain.NewPresaleData(pool, cfg, stats, r.now().Unix()), nil
}
