package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/storage"
)

func TestDiscoveryProgressStore_SetAndGetLastProcessed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDiscoveryProgressStore(pool)

	_, err := store.GetLastProcessed(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.SetLastProcessed(ctx, &storage.DiscoveryProgress{Block: 100, TxHash: "0xaa"}))
	require.NoError(t, store.SetLastProcessed(ctx, &storage.DiscoveryProgress{Block: 200, TxHash: "0xbb"}))

	retrieved, err := store.GetLastProcessed(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), retrieved.Block)
	assert.Equal(t, "0xbb", retrieved.TxHash)

	assert.ErrorIs(t, store.SetLastProcessed(ctx, nil), storage.ErrInvalidInput)
}

func TestDiscoveryProgressStore_SeenPools(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDiscoveryProgressStore(pool)

	seen, err := store.IsPoolSeen(ctx, "0x02")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, store.MarkPoolSeen(ctx, "0x02"))
	require.NoError(t, store.MarkPoolSeen(ctx, "0x01"))
	require.NoError(t, store.MarkPoolSeen(ctx, "0x02"), "marking twice is a no-op")

	seen, err = store.IsPoolSeen(ctx, "0x02")
	require.NoError(t, err)
	assert.True(t, seen)

	pools, err := store.LoadSeenPools(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x01", "0x02"}, pools)

	_, err = store.IsPoolSeen(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
