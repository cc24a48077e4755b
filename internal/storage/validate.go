package storage

import (
	"fmt"
	"strings"

	"core-launchpad/internal/domain"
)

// PrepareTokenMetadata validates m and returns a normalized copy ready for an
// upsert: lowercase pool address, trimmed name and symbol, empty optional
// fields collapsed to nil.
func PrepareTokenMetadata(m *domain.TokenMetadata) (*domain.TokenMetadata, error) {
	if m == nil {
		return nil, ErrInvalidInput
	}
	out := *m
	out.PoolAddress = domain.NormalizeAddress(m.PoolAddress)
	out.Name = strings.TrimSpace(m.Name)
	out.Symbol = strings.TrimSpace(m.Symbol)

	switch {
	case out.PoolAddress == "":
		return nil, fmt.Errorf("%w: pool address is required", ErrInvalidInput)
	case out.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case out.Symbol == "":
		return nil, fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}

	out.ImageURL = nonEmpty(m.ImageURL)
	out.Description = nonEmpty(m.Description)
	out.Website = nonEmpty(m.Website)
	out.Telegram = nonEmpty(m.Telegram)
	out.Twitter = nonEmpty(m.Twitter)
	return &out, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	return domain.OptionalString(*s)
}
