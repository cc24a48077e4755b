package domain

import "math/big"

// SwapSide is the direction of a router swap against the native asset.
type SwapSide string

// Swap side constants
const (
	SwapSideBuy  SwapSide = "buy"  // native -> token
	SwapSideSell SwapSide = "sell" // token -> native
)

// ParseSwapSide validates a side string.
func ParseSwapSide(s string) (SwapSide, bool) {
	switch SwapSide(s) {
	case SwapSideBuy, SwapSideSell:
		return SwapSide(s), true
	}
	return "", false
}

// MinAmountOut applies a slippage tolerance in whole percent to a quote:
// quote * (100 - slippage) / 100.
func MinAmountOut(quote *big.Int, slippagePercent int) *big.Int {
	if quote == nil || quote.Sign() <= 0 {
		return new(big.Int)
	}
	if slippagePercent < 0 {
		slippagePercent = 0
	}
	if slippagePercent > 100 {
		slippagePercent = 100
	}
	out := new(big.Int).Mul(quote, big.NewInt(int64(100-slippagePercent)))
	return out.Quo(out, big.NewInt(100))
}

// SwapQuote is a router price quote.
type SwapQuote struct {
	Side         SwapSide
	AmountIn     *big.Int
	AmountOut    *big.Int
	MinAmountOut *big.Int
	Path         []string
}
