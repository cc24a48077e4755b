package postgres

import (
	"context"
	"fmt"

	"core-launchpad/internal/storage"
)

// DiscoveryProgressStore is a PostgreSQL implementation of storage.DiscoveryProgressStore.
// Uses two tables:
//   - discovery_progress: single row with (block, tx_hash)
//   - discovery_seen_pools: set of announced pool addresses
type DiscoveryProgressStore struct {
	pool *Pool
}

// NewDiscoveryProgressStore creates a new PostgreSQL discovery progress store.
func NewDiscoveryProgressStore(pool *Pool) *DiscoveryProgressStore {
	return &DiscoveryProgressStore{pool: pool}
}

var _ storage.DiscoveryProgressStore = (*DiscoveryProgressStore)(nil)

// GetLastProcessed returns the last handled creation event.
func (s *DiscoveryProgressStore) GetLastProcessed(ctx context.Context) (*storage.DiscoveryProgress, error) {
	var (
		progress storage.DiscoveryProgress
		block    int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT block, tx_hash
		FROM discovery_progress
		WHERE id = 1
	`).Scan(&block, &progress.TxHash)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get discovery progress: %w", err)
	}
	progress.Block = uint64(block)
	return &progress, nil
}

// SetLastProcessed saves the last handled creation event.
func (s *DiscoveryProgressStore) SetLastProcessed(ctx context.Context, progress *storage.DiscoveryProgress) error {
	if progress == nil {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO discovery_progress (id, block, tx_hash, updated_at)
		VALUES (1, $1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE
		SET block = EXCLUDED.block,
		    tx_hash = EXCLUDED.tx_hash,
		    updated_at = CURRENT_TIMESTAMP
	`, int64(progress.Block), progress.TxHash)
	if err != nil {
		return fmt.Errorf("set discovery progress: %w", err)
	}
	return nil
}

// IsPoolSeen reports whether a pool address has been announced.
func (s *DiscoveryProgressStore) IsPoolSeen(ctx context.Context, poolAddress string) (bool, error) {
	if poolAddress == "" {
		return false, storage.ErrInvalidInput
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM discovery_seen_pools WHERE pool_address = $1)
	`, poolAddress).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seen pool: %w", err)
	}
	return exists, nil
}

// MarkPoolSeen records that a pool address has been announced.
func (s *DiscoveryProgressStore) MarkPoolSeen(ctx context.Context, poolAddress string) error {
	if poolAddress == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO discovery_seen_pools (pool_address)
		VALUES ($1)
		ON CONFLICT (pool_address) DO NOTHING
	`, poolAddress)
	if err != nil {
		return fmt.Errorf("mark pool seen: %w", err)
	}
	return nil
}

// LoadSeenPools returns all announced pool addresses in lexical order.
func (s *DiscoveryProgressStore) LoadSeenPools(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_address FROM discovery_seen_pools ORDER BY pool_address
	`)
	if err != nil {
		return nil, fmt.Errorf("load seen pools: %w", err)
	}
	defer rows.Close()

	var pools []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}
