package memory

import (
	"context"
	"sort"
	"sync"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/storage"
)

// PresaleSnapshotStore is an in-memory implementation of storage.PresaleSnapshotStore.
type PresaleSnapshotStore struct {
	mu     sync.RWMutex
	byPool map[string][]*domain.PresaleSnapshot // keyed by lowercase pool_address
}

// NewPresaleSnapshotStore creates a new in-memory presale snapshot store.
func NewPresaleSnapshotStore() *PresaleSnapshotStore {
	return &PresaleSnapshotStore{
		byPool: make(map[string][]*domain.PresaleSnapshot),
	}
}

// InsertBulk appends snapshot rows. The whole batch is rejected if any row is invalid.
func (s *PresaleSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PresaleSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.PoolAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		snapCopy := *snap
		s.byPool[snap.PoolAddress] = append(s.byPool[snap.PoolAddress], &snapCopy)
	}
	return nil
}

// GetByPool retrieves snapshots for a pool, ordered by observed_at ASC.
func (s *PresaleSnapshotStore) GetByPool(ctx context.Context, poolAddress string) ([]*domain.PresaleSnapshot, error) {
	return s.GetByTimeRange(ctx, poolAddress, 0, 1<<63-1)
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PresaleSnapshotStore) GetByTimeRange(_ context.Context, poolAddress string, start, end int64) ([]*domain.PresaleSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PresaleSnapshot
	for _, snap := range s.byPool[poolAddress] {
		if snap.ObservedAt >= start && snap.ObservedAt <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})
	return result, nil
}

var _ storage.PresaleSnapshotStore = (*PresaleSnapshotStore)(nil)
