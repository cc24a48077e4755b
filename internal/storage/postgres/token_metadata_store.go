package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

const tokenMetadataColumns = `
	id, pool_address, name, symbol, image_url, description,
	website, telegram, twitter, created_at, updated_at`

// Upsert inserts metadata or updates every display field of the existing row.
// created_at is kept from the first insert.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) (*domain.TokenMetadata, error) {
	row, err := storage.PrepareTokenMetadata(m)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO token_metadata (
			pool_address, name, symbol, image_url, description, website, telegram, twitter
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pool_address) DO UPDATE SET
			name        = EXCLUDED.name,
			symbol      = EXCLUDED.symbol,
			image_url   = EXCLUDED.image_url,
			description = EXCLUDED.description,
			website     = EXCLUDED.website,
			telegram    = EXCLUDED.telegram,
			twitter     = EXCLUDED.twitter,
			updated_at  = CURRENT_TIMESTAMP
		RETURNING ` + tokenMetadataColumns

	saved, err := scanTokenMetadata(s.pool.QueryRow(ctx, query,
		row.PoolAddress,
		row.Name,
		row.Symbol,
		row.ImageURL,
		row.Description,
		row.Website,
		row.Telegram,
		row.Twitter,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert token metadata: %w", err)
	}
	return saved, nil
}

// GetByAddress retrieves metadata by exact pool address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByAddress(ctx context.Context, poolAddress string) (*domain.TokenMetadata, error) {
	query := `SELECT ` + tokenMetadataColumns + `
		FROM token_metadata
		WHERE pool_address = $1
	`

	m, err := scanTokenMetadata(s.pool.QueryRow(ctx, query, poolAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata by address: %w", err)
	}
	return m, nil
}

// List returns all rows ordered by created_at DESC.
func (s *TokenMetadataStore) List(ctx context.Context) ([]*domain.TokenMetadata, error) {
	query := `SELECT ` + tokenMetadataColumns + `
		FROM token_metadata
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list token metadata: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenMetadata
	for rows.Next() {
		m, err := scanTokenMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token metadata: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token metadata: %w", err)
	}
	return result, nil
}

// Count returns the number of stored rows.
func (s *TokenMetadataStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM token_metadata`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count token metadata: %w", err)
	}
	return n, nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata

	err := row.Scan(
		&m.ID,
		&m.PoolAddress,
		&m.Name,
		&m.Symbol,
		&m.ImageURL,
		&m.Description,
		&m.Website,
		&m.Telegram,
		&m.Twitter,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
