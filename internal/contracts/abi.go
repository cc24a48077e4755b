// Package contracts holds the launchpad contract ABIs and typed wrappers
// over chain.Contract.
package contracts

import "core-launchpad/internal/chain"

const presaleTupleComponents = `[
	{"name":"token","type":"address"},
	{"name":"presaleRate","type":"uint256"},
	{"name":"softcap","type":"uint256"},
	{"name":"hardcap","type":"uint256"},
	{"name":"liquidityRate","type":"uint256"},
	{"name":"listingRate","type":"uint256"},
	{"name":"startTime","type":"uint256"},
	{"name":"endTime","type":"uint256"},
	{"name":"refund","type":"bool"},
	{"name":"tokenName","type":"string"},
	{"name":"tokenSymbol","type":"string"}
]`

const poolManagerJSON = `[
	{"type":"function","name":"getAllPresales","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"isFinalizable","stateMutability":"view","inputs":[{"name":"presale","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"createPresale","stateMutability":"nonpayable",
	 "inputs":[{"name":"newPresale","type":"tuple","internalType":"struct Presale","components":` + presaleTupleComponents + `}],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"PresaleCreated","anonymous":false,"inputs":[
		{"name":"presaleAddress","type":"address","indexed":false},
		{"name":"creator","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":false}
	]}
]`

const poolJSON = `[
	{"type":"function","name":"getPoolData","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"tuple","internalType":"struct Presale","components":` + presaleTupleComponents + `}]},
	{"type":"function","name":"_presaleStats","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"tuple","internalType":"struct Stats","components":[
		{"name":"totalContributed","type":"uint256"},
		{"name":"totalTokenAmount","type":"uint256"},
		{"name":"totalClaimed","type":"uint256"},
		{"name":"isFinalized","type":"bool"}
	 ]}]},
	{"type":"function","name":"contribute","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"finalize","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"expressWithdrawal","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const routerJSON = `[
	{"type":"function","name":"getAmountsOut","stateMutability":"view",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"type":"function","name":"swapExactETHForTokens","stateMutability":"payable",
	 "inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"type":"function","name":"swapExactTokensForETH","stateMutability":"nonpayable",
	 "inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const erc20JSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]}
]`

// Parsed ABIs.
var (
	PoolManagerABI = chain.ParseABI(poolManagerJSON)
	PoolABI        = chain.ParseABI(poolJSON)
	RouterABI      = chain.ParseABI(routerJSON)
	ERC20ABI       = chain.ParseABI(erc20JSON)
)
