package storage

import "context"

// DiscoveryProgress is the last PresaleCreated event handled by the tracker.
type DiscoveryProgress struct {
	Block  uint64 // block number of the event
	TxHash string // hex transaction hash of the event
}

// DiscoveryProgressStore persists tracker state across restarts so pools
// already announced are not reported as new again.
type DiscoveryProgressStore interface {
	// GetLastProcessed returns the last handled creation event.
	// Returns ErrNotFound if no progress has been saved yet.
	GetLastProcessed(ctx context.Context) (*DiscoveryProgress, error)

	// SetLastProcessed saves the last handled creation event.
	SetLastProcessed(ctx context.Context, progress *DiscoveryProgress) error

	// IsPoolSeen reports whether a pool address has been announced.
	IsPoolSeen(ctx context.Context, poolAddress string) (bool, error)

	// MarkPoolSeen records that a pool address has been announced.
	MarkPoolSeen(ctx context.Context, poolAddress string) error

	// LoadSeenPools returns all announced pool addresses.
	LoadSeenPools(ctx context.Context) ([]string, error)
}
