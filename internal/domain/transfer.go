package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TransferKind classifies a token Transfer relative to its presale pool.
type TransferKind string

const (
	TransferMint     TransferKind = "mint"
	TransferBurn     TransferKind = "burn"
	TransferBuy      TransferKind = "buy"
	TransferSell     TransferKind = "sell"
	TransferTransfer TransferKind = "transfer"
)

// TokenTransfer is one classified ERC20 Transfer event.
type TokenTransfer struct {
	Kind        TransferKind
	Amount      *big.Int
	Timestamp   int64 // block time, unix milliseconds
	TxHash      common.Hash
	User        common.Address // counterparty that is not the pool / zero address
	BlockNumber uint64
	LogIndex    uint
	From        common.Address
	To          common.Address
}

// ClassifyTransfer labels a transfer: mints come from the zero address, burns go
// to it, tokens leaving the pool are buys and tokens returning to it are sells.
// It returns the kind and the user the transfer is attributed to.
func ClassifyTransfer(from, to, pool common.Address) (TransferKind, common.Address) {
	zero := common.Address{}
	switch {
	case from == zero:
		return TransferMint, to
	case to == zero:
		return TransferBurn, from
	case from == pool:
		return TransferBuy, to
	case to == pool:
		return TransferSell, from
	default:
		return TransferTransfer, to
	}
}
