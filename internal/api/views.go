package api

import (
	"math/big"

	"core-launchpad/internal/discovery"
	"core-launchpad/internal/domain"
	"core-launchpad/internal/units"
)

// Amounts are rendered twice: as a wei decimal string and as ether.

type presaleView struct {
	Address       string `json:"address"`
	Token         string `json:"token"`
	TokenName     string `json:"tokenName"`
	TokenSymbol   string `json:"tokenSymbol"`
	PresaleRate   string `json:"presaleRate"`
	ListingRate   string `json:"listingRate"`
	LiquidityRate string `json:"liquidityRate"`
	Softcap       string `json:"softcap"`
	SoftcapEth    string `json:"softcapEth"`
	Hardcap       string `json:"hardcap"`
	HardcapEth    string `json:"hardcapEth"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Refund        bool   `json:"refund"`

	TotalContributed    string `json:"totalContributed"`
	TotalContributedEth string `json:"totalContributedEth"`
	TotalTokenAmount    string `json:"totalTokenAmount"`
	TotalClaimed        string `json:"totalClaimed"`
	IsFinalized         bool   `json:"isFinalized"`

	Status     domain.PresaleStatus `json:"status"`
	RealStatus domain.PresaleStatus `json:"realStatus"`
	Progress   int                  `json:"progress"`
}

func newPresaleView(p domain.PresaleData) presaleView {
	return presaleView{
		Address:       p.PoolAddress.Hex(),
		Token:         p.Config.Token.Hex(),
		TokenName:     p.Config.TokenName,
		TokenSymbol:   p.Config.TokenSymbol,
		PresaleRate:   weiString(p.Config.PresaleRate),
		ListingRate:   weiString(p.Config.ListingRate),
		LiquidityRate: weiString(p.Config.LiquidityRate),
		Softcap:       weiString(p.Config.Softcap),
		SoftcapEth:    etherString(p.Config.Softcap),
		Hardcap:       weiString(p.Config.Hardcap),
		HardcapEth:    etherString(p.Config.Hardcap),
		StartTime:     p.StartTime(),
		EndTime:       p.EndTime(),
		Refund:        p.Config.Refund,

		TotalContributed:    weiString(p.Stats.TotalContributed),
		TotalContributedEth: etherString(p.Stats.TotalContributed),
		TotalTokenAmount:    weiString(p.Stats.TotalTokenAmount),
		TotalClaimed:        weiString(p.Stats.TotalClaimed),
		IsFinalized:         p.Stats.IsFinalized,

		Status:     p.Status,
		RealStatus: p.RealStatus(p.ObservedAt),
		Progress:   p.Progress,
	}
}

type entryView struct {
	presaleView
	Index int  `json:"index"`
	IsNew bool `json:"isNew"`
}

func newEntryViews(entries []discovery.Entry) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryView{presaleView: newPresaleView(e.PresaleData), Index: e.Index, IsNew: e.IsNew})
	}
	return out
}

type snapshotView struct {
	Presales    []entryView `json:"presales"`
	RefreshedAt int64       `json:"refreshedAt"` // unix ms
	Trigger     string      `json:"trigger"`
}

func newSnapshotView(snap discovery.Snapshot) snapshotView {
	v := snapshotView{
		Presales: newEntryViews(snap.Presales),
		Trigger:  string(snap.Trigger),
	}
	if !snap.RefreshedAt.IsZero() {
		v.RefreshedAt = snap.RefreshedAt.UnixMilli()
	}
	return v
}

type positionView struct {
	PoolAddress     string                `json:"poolAddress"`
	TokenAddress    string                `json:"tokenAddress"`
	TokenName       string                `json:"tokenName"`
	TokenSymbol     string                `json:"tokenSymbol"`
	PresaleRate     string                `json:"presaleRate"`
	Status          domain.PositionStatus `json:"status"`
	StartTime       int64                 `json:"startTime"`
	EndTime         int64                 `json:"endTime"`
	Softcap         string                `json:"softcap"`
	Hardcap         string                `json:"hardcap"`
	PoolBalance     string                `json:"poolBalance"`
	PoolBalanceEth  string                `json:"poolBalanceEth"`
	TokenBalance    string                `json:"tokenBalance"`
	TokenBalanceFmt string                `json:"tokenBalanceFormatted"`
	IsFinalizable   bool                  `json:"isFinalizable"`
}

func newPositionView(p domain.Position) positionView {
	return positionView{
		PoolAddress:     p.PoolAddress.Hex(),
		TokenAddress:    p.TokenAddress.Hex(),
		TokenName:       p.TokenName,
		TokenSymbol:     p.TokenSymbol,
		PresaleRate:     weiString(p.PresaleRate),
		Status:          p.Status,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Softcap:         weiString(p.Softcap),
		Hardcap:         weiString(p.Hardcap),
		PoolBalance:     weiString(p.PoolBalance),
		PoolBalanceEth:  etherString(p.PoolBalance),
		TokenBalance:    weiString(p.TokenBalance),
		TokenBalanceFmt: etherString(p.TokenBalance),
		IsFinalizable:   p.IsFinalizable,
	}
}

type transferView struct {
	Type        domain.TransferKind `json:"type"`
	Amount      string              `json:"amount"`
	AmountFmt   string              `json:"amountFormatted"`
	Timestamp   int64               `json:"timestamp"` // unix ms
	Hash        string              `json:"hash"`
	User        string              `json:"user"`
	BlockNumber uint64              `json:"blockNumber"`
}

func newTransferView(t domain.TokenTransfer) transferView {
	return transferView{
		Type:        t.Kind,
		Amount:      weiString(t.Amount),
		AmountFmt:   etherString(t.Amount),
		Timestamp:   t.Timestamp,
		Hash:        t.TxHash.Hex(),
		User:        t.User.Hex(),
		BlockNumber: t.BlockNumber,
	}
}

func weiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func etherString(v *big.Int) string {
	return units.FormatEther(v)
}
