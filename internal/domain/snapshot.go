package domain

// PresaleSnapshot is one tracker observation of a presale, kept for progress history.
// Corresponds to presale_snapshots table in ClickHouse.
type PresaleSnapshot struct {
	PoolAddress      string // lowercase hex
	ObservedAt       int64  // unix milliseconds
	Status           PresaleStatus
	Progress         int
	TotalContributed string // wei, decimal string
	Hardcap          string // wei, decimal string
	Trigger          string // refresh trigger that produced the observation
}

// SnapshotFromPresale converts derived presale data to a snapshot row.
func SnapshotFromPresale(p PresaleData, observedAtMs int64, trigger string) *PresaleSnapshot {
	s := &PresaleSnapshot{
		PoolAddress:      NormalizeAddress(p.PoolAddress.Hex()),
		ObservedAt:       observedAtMs,
		Status:           p.Status,
		Progress:         p.Progress,
		TotalContributed: "0",
		Hardcap:          "0",
		Trigger:          trigger,
	}
	if p.Stats.TotalContributed != nil {
		s.TotalContributed = p.Stats.TotalContributed.String()
	}
	if p.Config.Hardcap != nil {
		s.Hardcap = p.Config.Hardcap.String()
	}
	return s
}
