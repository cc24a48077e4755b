package memory

import (
	"context"
	"sort"
	"sync"

	"core-launchpad/internal/storage"
)

// DiscoveryProgressStore is an in-memory implementation of storage.DiscoveryProgressStore.
type DiscoveryProgressStore struct {
	mu        sync.RWMutex
	progress  *storage.DiscoveryProgress
	seenPools map[string]struct{}
}

// NewDiscoveryProgressStore creates a new in-memory discovery progress store.
func NewDiscoveryProgressStore() *DiscoveryProgressStore {
	return &DiscoveryProgressStore{
		seenPools: make(map[string]struct{}),
	}
}

// GetLastProcessed returns the last handled creation event.
func (s *DiscoveryProgressStore) GetLastProcessed(_ context.Context) (*storage.DiscoveryProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.progress == nil {
		return nil, storage.ErrNotFound
	}
	p := *s.progress
	return &p, nil
}

// SetLastProcessed saves the last handled creation event.
func (s *DiscoveryProgressStore) SetLastProcessed(_ context.Context, progress *storage.DiscoveryProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := *progress
	s.progress = &p
	return nil
}

// IsPoolSeen reports whether a pool address has been announced.
func (s *DiscoveryProgressStore) IsPoolSeen(_ context.Context, poolAddress string) (bool, error) {
	if poolAddress == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.seenPools[poolAddress]
	return ok, nil
}

// MarkPoolSeen records that a pool address has been announced.
func (s *DiscoveryProgressStore) MarkPoolSeen(_ context.Context, poolAddress string) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seenPools[poolAddress] = struct{}{}
	return nil
}

// LoadSeenPools returns all announced pool addresses in lexical order.
func (s *DiscoveryProgressStore) LoadSeenPools(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]string, 0, len(s.seenPools))
	for p := range s.seenPools {
		pools = append(pools, p)
	}
	sort.Strings(pools)
	return pools, nil
}

var _ storage.DiscoveryProgressStore = (*DiscoveryProgressStore)(nil)
