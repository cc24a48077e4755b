package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"core-launchpad/internal/domain"
)

// PresaleTuple is the ABI shape of the Presale struct used by createPresale
// and getPoolData. Field names follow the ABI component names.
type PresaleTuple struct {
	Token         common.Address
	PresaleRate   *big.Int
	Softcap       *big.Int
	Hardcap       *big.Int
	LiquidityRate *big.Int
	ListingRate   *big.Int
	StartTime     *big.Int
	EndTime       *big.Int
	Refund        bool
	TokenName     string
	TokenSymbol   string
}

// StatsTuple is the ABI shape of the Stats struct returned by _presaleStats.
type StatsTuple struct {
	TotalContributed *big.Int
	TotalTokenAmount *big.Int
	TotalClaimed     *big.Int
	IsFinalized      bool
}

// ToDomain converts the tuple to a domain.PoolConfig.
func (t PresaleTuple) ToDomain() domain.PoolConfig {
	return domain.PoolConfig{
		Token:         t.Token,
		PresaleRate:   t.PresaleRate,
		Softcap:       t.Softcap,
		Hardcap:       t.Hardcap,
		LiquidityRate: t.LiquidityRate,
		ListingRate:   t.ListingRate,
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		Refund:        t.Refund,
		TokenName:     t.TokenName,
		TokenSymbol:   t.TokenSymbol,
	}
}

// PresaleTupleFromDomain is the inverse of ToDomain. Nil amounts become zero.
func PresaleTupleFromDomain(c domain.PoolConfig) PresaleTuple {
	return PresaleTuple{
		Token:         c.Token,
		PresaleRate:   orZero(c.PresaleRate),
		Softcap:       orZero(c.Softcap),
		Hardcap:       orZero(c.Hardcap),
		LiquidityRate: orZero(c.LiquidityRate),
		ListingRate:   orZero(c.ListingRate),
		StartTime:     orZero(c.StartTime),
		EndTime:       orZero(c.EndTime),
		Refund:        c.Refund,
		TokenName:     c.TokenName,
		TokenSymbol:   c.TokenSymbol,
	}
}

// ToDomain converts the tuple to a domain.PresaleStats.
func (t StatsTuple) ToDomain() domain.PresaleStats {
	return domain.PresaleStats{
		TotalContributed: t.TotalContributed,
		TotalTokenAmount: t.TotalTokenAmount,
		TotalClaimed:     t.TotalClaimed,
		IsFinalized:      t.IsFinalized,
	}
}

// StatsTupleFromDomain is the inverse of StatsTuple.ToDomain.
func StatsTupleFromDomain(s domain.PresaleStats) StatsTuple {
	return StatsTuple{
		TotalContributed: orZero(s.TotalContributed),
		TotalTokenAmount: orZero(s.TotalTokenAmount),
		TotalClaimed:     orZero(s.TotalClaimed),
		IsFinalized:      s.IsFinalized,
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
