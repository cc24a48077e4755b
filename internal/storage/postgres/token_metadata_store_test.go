package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/storage"
	"core-launchpad/internal/storage/migrations"
)

func TestTokenMetadataStore_UpsertAndGetByAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	metadata := &domain.TokenMetadata{
		PoolAddress: "0xAbCDEF0000000000000000000000000000000001",
		Name:        "Moon Token",
		Symbol:      "MOON",
		ImageURL:    ptr("https://img.example/moon.png"),
		Description: ptr("to the moon"),
		Website:     ptr("https://moon.example"),
		Telegram:    ptr(""),
	}

	saved, err := store.Upsert(ctx, metadata)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", saved.PoolAddress)
	assert.Nil(t, saved.Telegram, "empty optional fields are stored as NULL")
	assert.Nil(t, saved.Twitter)
	assert.NotZero(t, saved.CreatedAt)

	retrieved, err := store.GetByAddress(ctx, "0xabcdef0000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, retrieved.ID)
	assert.Equal(t, "Moon Token", retrieved.Name)
	assert.Equal(t, "MOON", retrieved.Symbol)
	require.NotNil(t, retrieved.ImageURL)
	assert.Equal(t, "https://img.example/moon.png", *retrieved.ImageURL)
	require.NotNil(t, retrieved.Website)
	assert.Equal(t, "https://moon.example", *retrieved.Website)
}

func TestTokenMetadataStore_UpsertUpdatesInPlace(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	first, err := store.Upsert(ctx, &domain.TokenMetadata{
		PoolAddress: "0x0000000000000000000000000000000000000abc",
		Name:        "First",
		Symbol:      "ONE",
		Twitter:     ptr("@first"),
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := store.Upsert(ctx, &domain.TokenMetadata{
		PoolAddress: "0x0000000000000000000000000000000000000ABC",
		Name:        "Second",
		Symbol:      "TWO",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Second", second.Name)
	assert.Nil(t, second.Twitter, "upsert replaces every display field")
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, !second.UpdatedAt.Before(first.UpdatedAt))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTokenMetadataStore_UpsertInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	_, err := store.Upsert(context.Background(), &domain.TokenMetadata{PoolAddress: "0x01", Name: "x"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTokenMetadataStore_GetByAddressNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	_, err := store.GetByAddress(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenMetadataStore_ListNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenMetadataStore(pool)

	for _, addr := range []string{"0x01", "0x02", "0x03"} {
		_, err := store.Upsert(ctx, &domain.TokenMetadata{PoolAddress: addr, Name: addr, Symbol: "S"})
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "0x03", list[0].PoolAddress)
	assert.Equal(t, "0x01", list[2].PoolAddress)
}

func TestRunPostgresMigrations_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	applied, err := migrations.RunPostgresMigrations(context.Background(), pool)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run applies nothing")
}
