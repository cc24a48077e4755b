package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.25", "250000000000000000"},
		{" 2.5 ", "2500000000000000000"},
		{"0.000000000000000001", "1"},
		{"0", "0"},
	}
	for _, tc := range tests {
		got, err := ParseEther(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestParseEther_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		_, err := ParseEther(in)
		assert.Error(t, err, in)
	}
}

func TestFormatEther(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatEther(wei))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	assert.Equal(t, "1.50", FormatEtherFixed(wei, 2))
	assert.Equal(t, "0.0000", FormatEtherFixed(nil, 4))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "12.345", FormatUnits(big.NewInt(12345), 3))
}
