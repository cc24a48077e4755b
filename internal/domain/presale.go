package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PresaleStatus is the time/flag derived lifecycle classification of a presale.
// It is recomputed on every read and never stored.
type PresaleStatus string

const (
	StatusComingSoon PresaleStatus = "Coming Soon"
	StatusLive       PresaleStatus = "Live"
	StatusEnded      PresaleStatus = "Ended"
	StatusFinalized  PresaleStatus = "Finalized"

	// StatusHardcapReached is only reported by RealStatus for participation views.
	StatusHardcapReached PresaleStatus = "Hardcap Reached"
)

// ParseStatusFilter maps a filter string to a status. "All" and "" return ok=true with an empty status.
func ParseStatusFilter(s string) (PresaleStatus, bool) {
	switch s {
	case "", "All":
		return "", true
	case string(StatusComingSoon), string(StatusLive), string(StatusEnded), string(StatusFinalized):
		return PresaleStatus(s), true
	}
	return "", false
}

// PoolConfig mirrors the Presale struct returned by Pool.getPoolData().
type PoolConfig struct {
	Token         common.Address
	PresaleRate   *big.Int // tokens per native unit
	Softcap       *big.Int // wei
	Hardcap       *big.Int // wei
	LiquidityRate *big.Int
	ListingRate   *big.Int
	StartTime     *big.Int // unix seconds
	EndTime       *big.Int // unix seconds
	Refund        bool
	TokenName     string
	TokenSymbol   string
}

// PresaleStats mirrors the Stats struct returned by Pool._presaleStats().
type PresaleStats struct {
	TotalContributed *big.Int
	TotalTokenAmount *big.Int
	TotalClaimed     *big.Int
	IsFinalized      bool
}

// PresaleData is the derived, read-only projection of one presale at a point in time.
type PresaleData struct {
	PoolAddress common.Address
	Config      PoolConfig
	Stats       PresaleStats
	Status      PresaleStatus
	Progress    int   // integer percent of hardcap contributed
	ObservedAt  int64 // unix seconds the status was derived at
}

// ClassifyStatus derives the lifecycle status at now (unix seconds).
// The finalized flag overrides the time based classification.
func ClassifyStatus(now, start, end int64, finalized bool) PresaleStatus {
	switch {
	case finalized:
		return StatusFinalized
	case now < start:
		return StatusComingSoon
	case now <= end:
		return StatusLive
	default:
		return StatusEnded
	}
}

// Progress returns contributed*100/hardcap truncated to an integer.
// A nil or zero hardcap yields 0.
func Progress(contributed, hardcap *big.Int) int {
	if hardcap == nil || hardcap.Sign() <= 0 || contributed == nil {
		return 0
	}
	p := new(big.Int).Mul(contributed, big.NewInt(100))
	p.Quo(p, hardcap)
	return int(p.Int64())
}

// NewPresaleData derives status and progress for a pool at now.
func NewPresaleData(pool common.Address, cfg PoolConfig, stats PresaleStats, now int64) PresaleData {
	return PresaleData{
		PoolAddress: pool,
		Config:      cfg,
		Stats:       stats,
		Status:      ClassifyStatus(now, unix(cfg.StartTime), unix(cfg.EndTime), stats.IsFinalized),
		Progress:    Progress(stats.TotalContributed, cfg.Hardcap),
		ObservedAt:  now,
	}
}

// At returns a copy with the status reclassified at now (unix seconds).
// Config and stats are kept as read.
func (p PresaleData) At(now int64) PresaleData {
	p.Status = ClassifyStatus(now, unix(p.Config.StartTime), unix(p.Config.EndTime), p.Stats.IsFinalized)
	p.ObservedAt = now
	return p
}

// StartTime returns the configured start in unix seconds.
func (p PresaleData) StartTime() int64 { return unix(p.Config.StartTime) }

// EndTime returns the configured end in unix seconds.
func (p PresaleData) EndTime() int64 { return unix(p.Config.EndTime) }

// RemainingCap returns hardcap minus contributed. It may be zero or negative.
func (p PresaleData) RemainingCap() *big.Int {
	hardcap := p.Config.Hardcap
	if hardcap == nil {
		hardcap = new(big.Int)
	}
	contributed := p.Stats.TotalContributed
	if contributed == nil {
		contributed = new(big.Int)
	}
	return new(big.Int).Sub(hardcap, contributed)
}

// RealStatus is the participation-view status: like ClassifyStatus but a live
// presale whose cap is exhausted reports StatusHardcapReached. A pool with no
// contributions yet is never reported as capped.
func (p PresaleData) RealStatus(now int64) PresaleStatus {
	status := ClassifyStatus(now, unix(p.Config.StartTime), unix(p.Config.EndTime), p.Stats.IsFinalized)
	contributed := p.Stats.TotalContributed
	if status == StatusLive && p.Config.Hardcap != nil && contributed != nil && contributed.Sign() > 0 && p.RemainingCap().Sign() <= 0 {
		return StatusHardcapReached
	}
	return status
}

// ListingRate is the default listing rate: 80% of the presale rate.
func ListingRate(presaleRate *big.Int) *big.Int {
	if presaleRate == nil {
		return new(big.Int)
	}
	r := new(big.Int).Mul(presaleRate, big.NewInt(80))
	return r.Quo(r, big.NewInt(100))
}

// TokensForContribution returns amountWei * presaleRate, the token amount (in
// token base units for an 18 decimal token) a contribution buys.
func TokensForContribution(amountWei, presaleRate *big.Int) *big.Int {
	if amountWei == nil || presaleRate == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(amountWei, presaleRate)
}

func unix(v *big.Int) int64 {
	if v == nil {
		return 0
	}
	if !v.IsInt64() {
		return 1<<63 - 1
	}
	return v.Int64()
}
