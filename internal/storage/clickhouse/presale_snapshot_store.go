package clickhouse

import (
	"context"
	"fmt"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/storage"
)

// PresaleSnapshotStore implements storage.PresaleSnapshotStore using ClickHouse.
type PresaleSnapshotStore struct {
	conn *Conn
}

// NewPresaleSnapshotStore creates a new PresaleSnapshotStore.
func NewPresaleSnapshotStore(conn *Conn) *PresaleSnapshotStore {
	return &PresaleSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PresaleSnapshotStore = (*PresaleSnapshotStore)(nil)

// InsertBulk appends snapshot rows in a single batch.
func (s *PresaleSnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.PresaleSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.PoolAddress == "" || snap.Progress < 0 {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO presale_snapshots (
			pool_address, observed_at_ms, status, progress, total_contributed, hardcap, trigger
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.PoolAddress, uint64(snap.ObservedAt), string(snap.Status),
			uint16(snap.Progress), snap.TotalContributed, snap.Hardcap, snap.Trigger,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByPool retrieves snapshots for a pool, ordered by observed_at ASC.
func (s *PresaleSnapshotStore) GetByPool(ctx context.Context, poolAddress string) ([]*domain.PresaleSnapshot, error) {
	return s.query(ctx, `
		SELECT pool_address, observed_at_ms, status, progress, total_contributed, hardcap, trigger
		FROM presale_snapshots
		WHERE pool_address = ?
		ORDER BY observed_at_ms ASC
	`, poolAddress)
}

// GetByTimeRange retrieves snapshots for a pool within [start, end] (inclusive).
func (s *PresaleSnapshotStore) GetByTimeRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.PresaleSnapshot, error) {
	if start < 0 || end < start {
		return nil, storage.ErrInvalidInput
	}
	return s.query(ctx, `
		SELECT pool_address, observed_at_ms, status, progress, total_contributed, hardcap, trigger
		FROM presale_snapshots
		WHERE pool_address = ? AND observed_at_ms >= ? AND observed_at_ms <= ?
		ORDER BY observed_at_ms ASC
	`, poolAddress, uint64(start), uint64(end))
}

func (s *PresaleSnapshotStore) query(ctx context.Context, query string, args ...any) ([]*domain.PresaleSnapshot, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query presale snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.PresaleSnapshot
	for rows.Next() {
		var (
			snap       domain.PresaleSnapshot
			observedAt uint64
			status     string
			progress   uint16
		)
		if err := rows.Scan(
			&snap.PoolAddress, &observedAt, &status, &progress,
			&snap.TotalContributed, &snap.Hardcap, &snap.Trigger,
		); err != nil {
			return nil, fmt.Errorf("scan presale snapshot: %w", err)
		}
		snap.ObservedAt = int64(observedAt)
		snap.Status = domain.PresaleStatus(status)
		snap.Progress = int(progress)
		result = append(result, &snap)
	}
	return result, rows.Err()
}
