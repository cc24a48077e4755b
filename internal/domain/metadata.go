package domain

import (
	"strings"
	"time"
)

// TokenMetadata represents off-chain display metadata for a presale pool.
// Corresponds to token_metadata table in PostgreSQL.
type TokenMetadata struct {
	ID          int64     // SERIAL primary key
	PoolAddress string    // UNIQUE, lowercase hex pool address
	Name        string    // token display name
	Symbol      string    // token ticker
	ImageURL    *string   // logo URL (nullable)
	Description *string   // free text (nullable)
	Website     *string   // project website (nullable)
	Telegram    *string   // telegram handle or link (nullable)
	Twitter     *string   // twitter handle or link (nullable)
	CreatedAt   time.Time // first insert
	UpdatedAt   time.Time // last upsert
}

// NormalizeAddress lowercases and trims a hex address so lookups and
// upserts agree on a single key per pool.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// OptionalString returns nil for empty strings so absent fields are stored as NULL.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
