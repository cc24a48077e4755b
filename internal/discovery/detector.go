package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/observability"
	"core-launchpad/internal/storage"
)

// PoolDetector reports pools the service has not announced before.
// Seen pools are cached in memory and persisted when a store is set, so a
// restart does not announce the whole list again.
type PoolDetector struct {
	mu    sync.Mutex
	seen  map[string]bool
	store storage.DiscoveryProgressStore // nil keeps state in memory only
}

// NewPoolDetector creates a detector. store may be nil.
func NewPoolDetector(store storage.DiscoveryProgressStore) *PoolDetector {
	return &PoolDetector{
		seen:  make(map[string]bool),
		store: store,
	}
}

// Load warms the in-memory cache from the store and returns how many pools
// were already known.
func (d *PoolDetector) Load(ctx context.Context) (int, error) {
	if d.store == nil {
		return 0, nil
	}
	pools, err := d.store.LoadSeenPools(ctx)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range pools {
		d.seen[domain.NormalizeAddress(p)] = true
	}
	return len(d.seen), nil
}

// Known returns the number of pools seen so far.
func (d *PoolDetector) Known() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Observe marks pool as seen and reports whether it was new.
// Returns error if the store fails; the pool then stays unseen.
func (d *PoolDetector) Observe(ctx context.Context, pool string) (bool, error) {
	key := domain.NormalizeAddress(pool)

	d.mu.Lock()
	if d.seen[key] {
		d.mu.Unlock()
		return false, nil
	}
	d.mu.Unlock()

	if d.store != nil {
		seen, err := d.store.IsPoolSeen(ctx, key)
		if err != nil {
			return false, err
		}
		if seen {
			d.mark(key)
			return false, nil
		}
		if err := d.store.MarkPoolSeen(ctx, key); err != nil {
			return false, err
		}
	}

	d.mark(key)
	observability.RecordPresaleDiscovered()
	return true, nil
}

// ObserveAll observes pools in order and returns the new ones. Store errors
// are logged and the pool is retried on the next call.
func (d *PoolDetector) ObserveAll(ctx context.Context, pools []string, logger *zap.Logger) []string {
	var fresh []string
	for _, p := range pools {
		isNew, err := d.Observe(ctx, p)
		if err != nil {
			logger.Warn("record seen pool", zap.String("pool", p), zap.Error(err))
			continue
		}
		if isNew {
			fresh = append(fresh, domain.NormalizeAddress(p))
		}
	}
	return fresh
}

func (d *PoolDetector) mark(key string) {
	d.mu.Lock()
	d.seen[key] = true
	d.mu.Unlock()
}

// Reset clears the in-memory cache. The store is left untouched.
func (d *PoolDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]bool)
}
