package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"core-launchpad/internal/chain"
)

// Router wraps a UniswapV2 style router.
type Router struct {
	*chain.Contract
}

// NewRouter binds the router at addr.
func NewRouter(addr common.Address, backend chain.Backend) *Router {
	return &Router{chain.NewContract(addr, RouterABI, backend)}
}

// GetAmountsOut returns the output amount at every hop of path.
func (r *Router) GetAmountsOut(ctx context.Context, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	out, err := r.Call(ctx, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, err
	}
	amounts := *abiConvert[[]*big.Int](out[0])
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("getAmountsOut: %d amounts for %d hop path", len(amounts), len(path))
	}
	return amounts, nil
}

// SwapExactETHForTokens swaps the attached native value for tokens.
func (r *Router) SwapExactETHForTokens(ctx context.Context, t *chain.Transactor, value, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (*types.Transaction, error) {
	return r.Transact(ctx, t, value, "swapExactETHForTokens", amountOutMin, path, to, deadline)
}

// SwapExactTokensForETH swaps amountIn tokens for native value.
func (r *Router) SwapExactTokensForETH(ctx context.Context, t *chain.Transactor, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) (*types.Transaction, error) {
	return r.Transact(ctx, t, nil, "swapExactTokensForETH", amountIn, amountOutMin, path, to, deadline)
}
