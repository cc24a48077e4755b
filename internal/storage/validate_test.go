package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"core-launchpad/internal/domain"
)

func TestPrepareTokenMetadata(t *testing.T) {
	empty := ""
	site := "https://example.org"

	in := &domain.TokenMetadata{
		PoolAddress: "  0xABCdef0000000000000000000000000000000001 ",
		Name:        " Moon ",
		Symbol:      "MOON",
		Website:     &site,
		Telegram:    &empty,
	}

	out, err := PrepareTokenMetadata(in)
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", out.PoolAddress)
	assert.Equal(t, "Moon", out.Name)
	assert.Equal(t, &site, out.Website)
	assert.Nil(t, out.Telegram)

	// input is not mutated
	assert.Equal(t, " Moon ", in.Name)
}

func TestPrepareTokenMetadata_Invalid(t *testing.T) {
	cases := map[string]*domain.TokenMetadata{
		"nil":            nil,
		"missing pool":   {Name: "A", Symbol: "A"},
		"missing name":   {PoolAddress: "0x1", Symbol: "A"},
		"missing symbol": {PoolAddress: "0x1", Name: "A"},
		"blank name":     {PoolAddress: "0x1", Name: "  ", Symbol: "A"},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := PrepareTokenMetadata(m)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
