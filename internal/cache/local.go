package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"

	"core-launchpad/internal/observability"
)

// Local is an in-process Cache backed by bigcache.
type Local struct {
	cache *bigcache.BigCache
}

var _ Cache = (*Local)(nil)

// NewLocal creates a Local cache whose entries live for ttl.
func NewLocal(ctx context.Context, ttl time.Duration) (*Local, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10_000
	cfg.MaxEntrySize = 2048
	cfg.CleanWindow = ttl
	if cfg.CleanWindow < time.Second {
		cfg.CleanWindow = time.Second
	}
	cfg.Verbose = false

	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create local cache: %w", err)
	}
	return &Local{cache: c}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, err := l.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		observability.RecordCache("local", false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	observability.RecordCache("local", true)
	return v, true, nil
}

func (l *Local) Set(_ context.Context, key string, value []byte) error {
	return l.cache.Set(key, value)
}

func (l *Local) Close() error {
	return l.cache.Close()
}
