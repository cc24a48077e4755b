// Package cache stores short-lived API responses, either in process
// (bigcache) or shared between replicas (redis).
package cache

import "context"

// Cache is a byte-oriented TTL cache. Entries expire after the TTL the
// implementation was built with.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
