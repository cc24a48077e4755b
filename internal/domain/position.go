package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PositionStatus classifies a holder's position in a presale.
type PositionStatus string

const (
	PositionActive          PositionStatus = "Active"
	PositionFinalized       PositionStatus = "Finalized"
	PositionReadyToFinalize PositionStatus = "Ended (Ready to Finalize)"
	PositionFailed          PositionStatus = "Failed"
)

// Position is a user's token holding from a presale together with the pool state
// needed to decide between finalizing and withdrawing.
type Position struct {
	PoolAddress   common.Address
	TokenAddress  common.Address
	TokenName     string
	TokenSymbol   string
	PresaleRate   *big.Int
	Status        PositionStatus
	StartTime     int64
	EndTime       int64
	Softcap       *big.Int
	Hardcap       *big.Int
	PoolBalance   *big.Int // native balance held by the pool contract
	TokenBalance  *big.Int // user's token balance
	IsFinalizable bool
}

// ClassifyPosition derives a position status. Once the end time has passed a
// pool holding at least the softcap is ready to finalize, otherwise it failed.
func ClassifyPosition(now, end int64, finalized bool, poolBalance, softcap *big.Int) PositionStatus {
	switch {
	case finalized:
		return PositionFinalized
	case now > end:
		if poolBalance != nil && softcap != nil && poolBalance.Cmp(softcap) >= 0 {
			return PositionReadyToFinalize
		}
		return PositionFailed
	default:
		return PositionActive
	}
}
