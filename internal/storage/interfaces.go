package storage

import (
	"context"

	"core-launchpad/internal/domain"
)

// TokenMetadataStore provides access to token_metadata storage.
// Rows are keyed by lowercase pool address and are never deleted.
type TokenMetadataStore interface {
	// Upsert inserts metadata or replaces the display fields of an existing row.
	// PoolAddress is lowercased before the write. Name, Symbol and PoolAddress
	// are required (ErrInvalidInput). Returns the stored row.
	Upsert(ctx context.Context, m *domain.TokenMetadata) (*domain.TokenMetadata, error)

	// GetByAddress retrieves metadata by exact pool address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, poolAddress string) (*domain.TokenMetadata, error)

	// List returns all rows ordered by created_at DESC.
	List(ctx context.Context) ([]*domain.TokenMetadata, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}

// PresaleSnapshotStore provides access to presale_snapshots storage.
type PresaleSnapshotStore interface {
	// InsertBulk appends snapshot rows. Rows are history, so repeated
	// observations of the same pool are expected.
	InsertBulk(ctx context.Context, snapshots []*domain.PresaleSnapshot) error

	// GetByPool retrieves snapshots for a pool, ordered by observed_at ASC.
	GetByPool(ctx context.Context, poolAddress string) ([]*domain.PresaleSnapshot, error)

	// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive, unix ms).
	GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.PresaleSnapshot, error)
}
