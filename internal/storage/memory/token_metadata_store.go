package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu     sync.RWMutex
	byPool map[string]*domain.TokenMetadata // keyed by lowercase pool_address (unique)
	nextID int64
	now    func() time.Time
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		byPool: make(map[string]*domain.TokenMetadata),
		now:    time.Now,
	}
}

// Upsert inserts metadata or updates the display fields of an existing row.
func (s *TokenMetadataStore) Upsert(_ context.Context, m *domain.TokenMetadata) (*domain.TokenMetadata, error) {
	row, err := storage.PrepareTokenMetadata(m)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.byPool[row.PoolAddress]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		row.ID = s.nextID
		row.CreatedAt = now
	}
	row.UpdatedAt = now

	s.byPool[row.PoolAddress] = row
	metaCopy := *row
	return &metaCopy, nil
}

// GetByAddress retrieves metadata by exact pool address. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByAddress(_ context.Context, poolAddress string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.byPool[poolAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	metaCopy := *m
	return &metaCopy, nil
}

// List returns all rows, newest first.
func (s *TokenMetadataStore) List(_ context.Context) ([]*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TokenMetadata, 0, len(s.byPool))
	for _, m := range s.byPool {
		metaCopy := *m
		out = append(out, &metaCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Count returns the number of stored rows.
func (s *TokenMetadataStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byPool), nil
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)
