// Package units converts between human readable ether amounts and wei.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimals of the native asset and of the
// tokens the pool manager deploys.
const EtherDecimals = 18

// ParseEther converts a decimal ether string such as "0.25" to wei.
// More than 18 fractional digits, negative and malformed values are rejected.
func ParseEther(s string) (*big.Int, error) {
	return ParseUnits(s, EtherDecimals)
}

// ParseUnits converts a decimal string to an integer amount with the given decimals.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatEther renders wei as an ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// FormatUnits renders an integer amount with the given decimals.
func FormatUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// FormatEtherFixed renders wei rounded to places fractional digits, as used
// in compact displays such as progress bars and position tables.
func FormatEtherFixed(wei *big.Int, places int32) string {
	if wei == nil {
		wei = new(big.Int)
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).StringFixed(places)
}
