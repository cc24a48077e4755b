// Package discovery keeps the list of presales and their derived status
// fresh. Every freshness source (startup, creation events, the empty-list
// poll, the stale-snapshot refresh, API requests) goes through the same
// serialized refresh routine.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"core-launchpad/internal/domain"
	"core-launchpad/internal/observability"
	"core-launchpad/internal/presale"
	"core-launchpad/internal/storage"
)

// Trigger names what caused a refresh.
type Trigger string

const (
	TriggerStartup Trigger = "startup"
	TriggerEvent   Trigger = "event"
	TriggerPoll    Trigger = "poll"
	TriggerManual  Trigger = "manual"
	TriggerStale   Trigger = "stale"
	TriggerExpiry  Trigger = "new_flag_expiry"
)

// Order sorts a snapshot by manager position.
type Order string

const (
	OrderDesc Order = "desc" // newest first
	OrderAsc  Order = "asc"
)

// ParseOrder maps "", "desc" and "asc"; anything else is rejected.
func ParseOrder(s string) (Order, bool) {
	switch Order(s) {
	case "", OrderDesc:
		return OrderDesc, true
	case OrderAsc:
		return OrderAsc, true
	}
	return "", false
}

// Entry is one presale in a snapshot.
type Entry struct {
	domain.PresaleData
	Index int  // position in the manager list, 0 is the oldest
	IsNew bool // announced within the new-flag window
}

// Snapshot is the tracker state after a refresh, in manager order.
type Snapshot struct {
	Presales    []Entry
	RefreshedAt time.Time
	Trigger     Trigger
}

// Options for creating a Tracker.
type Options struct {
	Reader    *presale.Reader
	Snapshots storage.PresaleSnapshotStore   // optional progress history
	Progress  storage.DiscoveryProgressStore // optional, persists announced pools

	SettleDelay       time.Duration // wait after a creation event; default 500ms
	EmptyPollInterval time.Duration // poll period while no presale is known; default 5s
	FetchConcurrency  int           // default 8
	NewFlagDuration   time.Duration // default 3s
	MaxAge            time.Duration // snapshot age that triggers a re-read; default 10s
	ResubscribeDelay  time.Duration // first wait after a dropped subscription; default 500ms

	Logger *zap.Logger
}

// Tracker maintains the presale snapshot.
type Tracker struct {
	reader    *presale.Reader
	snapshots storage.PresaleSnapshotStore
	progress  storage.DiscoveryProgressStore
	detector  *PoolDetector

	settleDelay      time.Duration
	pollInterval     time.Duration
	concurrency      int
	newFlag          time.Duration
	maxAge           time.Duration
	resubscribeDelay time.Duration
	logger           *zap.Logger

	refreshMu sync.Mutex

	mu        sync.RWMutex
	current   Snapshot
	hasState  bool
	refreshed time.Time // wall clock of the last successful refresh
	newUntil  map[common.Address]time.Time

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// New creates a Tracker.
func New(opts Options) *Tracker {
	t := &Tracker{
		reader:           opts.Reader,
		snapshots:        opts.Snapshots,
		progress:         opts.Progress,
		detector:         NewPoolDetector(opts.Progress),
		settleDelay:      opts.SettleDelay,
		pollInterval:     opts.EmptyPollInterval,
		concurrency:      opts.FetchConcurrency,
		newFlag:          opts.NewFlagDuration,
		maxAge:           opts.MaxAge,
		resubscribeDelay: opts.ResubscribeDelay,
		logger:           opts.Logger,
		newUntil:         make(map[common.Address]time.Time),
		subs:             make(map[int]chan Snapshot),
	}
	if t.settleDelay <= 0 {
		t.settleDelay = 500 * time.Millisecond
	}
	if t.pollInterval <= 0 {
		t.pollInterval = 5 * time.Second
	}
	if t.concurrency <= 0 {
		t.concurrency = 8
	}
	if t.newFlag <= 0 {
		t.newFlag = 3 * time.Second
	}
	if t.maxAge <= 0 {
		t.maxAge = 10 * time.Second
	}
	if t.resubscribeDelay <= 0 {
		t.resubscribeDelay = 500 * time.Millisecond
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	t.logger = t.logger.Named("tracker")
	return t
}

// Refresh re-reads the manager list and every presale, replaces the snapshot
// and publishes it. Calls are serialized; a presale that fails to load is
// left out of this snapshot only. A failed list read keeps the previous
// snapshot and returns the error.
func (t *Tracker) Refresh(ctx context.Context, trigger Trigger) (Snapshot, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()
	return t.refreshLocked(ctx, trigger)
}

// EnsureFresh refreshes when no snapshot exists yet or the current one is
// older than MaxAge, and returns the snapshot. Concurrent callers share one
// refresh. On error the previous snapshot is returned with the error.
func (t *Tracker) EnsureFresh(ctx context.Context) (Snapshot, error) {
	if !t.stale() {
		return t.Snapshot(), nil
	}
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()
	if !t.stale() {
		return t.Snapshot(), nil
	}
	return t.refreshLocked(ctx, TriggerStale)
}

func (t *Tracker) stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.hasState || time.Since(t.refreshed) >= t.maxAge
}

func (t *Tracker) refreshLocked(ctx context.Context, trigger Trigger) (Snapshot, error) {
	start := time.Now()
	snap, err := t.refresh(ctx, trigger)
	observability.RecordRefresh(string(trigger), time.Since(start), len(snap.Presales), err)
	if err != nil {
		t.logger.Warn("refresh failed", zap.String("trigger", string(trigger)), zap.Error(err))
		return t.Snapshot(), err
	}

	t.logger.Debug("refreshed",
		zap.String("trigger", string(trigger)),
		zap.Int("presales", len(snap.Presales)),
		zap.Duration("took", time.Since(start)))
	t.publish(snap)
	return snap, nil
}

func (t *Tracker) refresh(ctx context.Context, trigger Trigger) (Snapshot, error) {
	pools, err := t.reader.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	results := make([]*domain.PresaleData, len(pools))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, pool := range pools {
		g.Go(func() error {
			data, err := t.reader.PresaleData(gctx, pool)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				observability.RecordPresaleFetchError()
				t.logger.Warn("drop presale for this cycle", zap.String("pool", pool.Hex()), zap.Error(err))
				return nil
			}
			results[i] = &data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	now := t.reader.Now()
	t.markNew(ctx, pools, now)

	t.mu.Lock()
	entries := make([]Entry, 0, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		entries = append(entries, Entry{PresaleData: *r, Index: i, IsNew: t.newUntil[r.PoolAddress].After(now)})
	}
	snap := Snapshot{Presales: entries, RefreshedAt: now, Trigger: trigger}
	t.current = snap
	t.hasState = true
	t.refreshed = time.Now()
	t.mu.Unlock()

	t.recordSnapshots(ctx, snap)
	return snap, nil
}

// markNew flags pools announced for the first time. The first refresh of a
// tracker with no persisted history only learns the existing list.
func (t *Tracker) markNew(ctx context.Context, pools []common.Address, now time.Time) {
	t.mu.RLock()
	warm := t.hasState || t.detector.Known() > 0
	t.mu.RUnlock()
	if !warm {
		n, err := t.detector.Load(ctx)
		if err != nil {
			t.logger.Warn("load seen pools", zap.Error(err))
		}
		warm = n > 0
	}

	addrs := make([]string, len(pools))
	for i, p := range pools {
		addrs[i] = p.Hex()
	}
	fresh := t.detector.ObserveAll(ctx, addrs, t.logger)
	if !warm || len(fresh) == 0 {
		return
	}

	until := now.Add(t.newFlag)
	t.mu.Lock()
	for _, p := range fresh {
		addr := common.HexToAddress(p)
		t.newUntil[addr] = until
		t.logger.Info("new presale", zap.String("pool", addr.Hex()))
	}
	t.mu.Unlock()

	time.AfterFunc(t.newFlag, func() { t.expireNew(until) })
}

// expireNew clears flags that ran out and republishes the snapshot.
func (t *Tracker) expireNew(deadline time.Time) {
	t.mu.Lock()
	changed := false
	for addr, until := range t.newUntil {
		if !until.After(deadline) {
			delete(t.newUntil, addr)
			changed = true
		}
	}
	if !changed {
		t.mu.Unlock()
		return
	}
	snap := t.current
	entries := make([]Entry, len(snap.Presales))
	for i, e := range snap.Presales {
		_, stillNew := t.newUntil[e.PoolAddress]
		e.IsNew = stillNew
		entries[i] = e
	}
	snap.Presales = entries
	snap.Trigger = TriggerExpiry
	t.current = snap
	t.mu.Unlock()

	t.publish(snap)
}

func (t *Tracker) recordSnapshots(ctx context.Context, snap Snapshot) {
	if t.snapshots == nil || len(snap.Presales) == 0 {
		return
	}
	observedAt := snap.RefreshedAt.UnixMilli()
	rows := make([]*domain.PresaleSnapshot, len(snap.Presales))
	for i, e := range snap.Presales {
		rows[i] = domain.SnapshotFromPresale(e.PresaleData, observedAt, string(snap.Trigger))
	}
	if err := t.snapshots.InsertBulk(ctx, rows); err != nil {
		observability.RecordSnapshotWriteError()
		t.logger.Warn("write presale snapshots", zap.Int("rows", len(rows)), zap.Error(err))
	}
}

// Snapshot returns the latest snapshot in manager order. Statuses are
// reclassified at the reader clock; stats are those of the last refresh.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	snap := t.current
	t.mu.RUnlock()

	now := t.reader.Now().Unix()
	entries := make([]Entry, len(snap.Presales))
	for i, e := range snap.Presales {
		e.PresaleData = e.PresaleData.At(now)
		entries[i] = e
	}
	snap.Presales = entries
	return snap
}

// Ready reports whether a refresh has completed.
func (t *Tracker) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hasState
}

// List returns the presales matching status (empty for all) sorted by order.
func (t *Tracker) List(status domain.PresaleStatus, order Order) []Entry {
	snap := t.Snapshot()
	out := make([]Entry, 0, len(snap.Presales))
	for _, e := range snap.Presales {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	if order == OrderAsc {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Index > out[j].Index })
	}
	return out
}

// Featured returns up to n presales in manager order, oldest first.
func (t *Tracker) Featured(n int) []Entry {
	all := t.List("", OrderAsc)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Subscribe returns a channel receiving every published snapshot. Slow
// readers only see the latest one. Call the returned func to unsubscribe.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	t.subsMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subsMu.Lock()
			delete(t.subs, id)
			t.subsMu.Unlock()
		})
	}
}

func (t *Tracker) publish(snap Snapshot) {
	t.subsMu.Lock()
	defer t.subsMu.Unlock()
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// lastProcessed returns a printable form of the stored progress, for logs.
func (t *Tracker) lastProcessed(ctx context.Context) string {
	if t.progress == nil {
		return "none"
	}
	p, err := t.progress.GetLastProcessed(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return "none"
	}
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("block %d tx %s", p.Block, p.TxHash)
}
