package discovery

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"core-launchpad/internal/observability"
	"core-launchpad/internal/storage"
)

// Run refreshes once, then keeps the snapshot fresh until ctx is done:
// every PresaleCreated event schedules a refresh after the settle delay
// (bursts coalesce into one). While no presale is known a fallback poll
// refreshes every EmptyPollInterval; afterwards the snapshot is re-read
// once it is older than MaxAge. Run returns nil on cancellation.
func (t *Tracker) Run(ctx context.Context) error {
	if n, err := t.detector.Load(ctx); err != nil {
		t.logger.Warn("load seen pools", zap.Error(err))
	} else {
		t.logger.Info("tracker starting", zap.Int("seen_pools", n), zap.String("last_event", t.lastProcessed(ctx)))
	}

	_, _ = t.Refresh(ctx, TriggerStartup)

	events := make(chan types.Log, 16)
	go t.watch(ctx, events)

	var settle <-chan time.Time
	var settleTimer *time.Timer
	poll := time.NewTimer(t.pollInterval)
	defer poll.Stop()
	t.armPoll(poll)

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			return nil

		case l := <-events:
			t.recordEvent(ctx, l)
			if settleTimer == nil {
				settleTimer = time.NewTimer(t.settleDelay)
				settle = settleTimer.C
			}

		case <-settle:
			settleTimer, settle = nil, nil
			_, _ = t.Refresh(ctx, TriggerEvent)
			t.armPoll(poll)

		case <-poll.C:
			if len(t.Snapshot().Presales) == 0 {
				_, _ = t.Refresh(ctx, TriggerPoll)
			} else {
				_, _ = t.EnsureFresh(ctx)
			}
			t.armPoll(poll)
		}
	}
}

// armPoll schedules the fallback poll while the snapshot is empty and the
// staleness check otherwise.
func (t *Tracker) armPoll(poll *time.Timer) {
	if !poll.Stop() {
		select {
		case <-poll.C:
		default:
		}
	}
	if len(t.Snapshot().Presales) == 0 {
		poll.Reset(t.pollInterval)
	} else {
		poll.Reset(t.maxAge)
	}
}

func (t *Tracker) recordEvent(ctx context.Context, l types.Log) {
	manager := t.reader.Manager()
	ev, err := manager.ParsePresaleCreated(l)
	if err != nil {
		t.logger.Debug("ignore manager log", zap.Error(err))
		return
	}
	t.logger.Info("presale created event",
		zap.String("pool", ev.PresaleAddress.Hex()),
		zap.Uint64("block", l.BlockNumber))

	if t.progress == nil {
		return
	}
	err = t.progress.SetLastProcessed(ctx, &storage.DiscoveryProgress{Block: l.BlockNumber, TxHash: l.TxHash.Hex()})
	if err != nil {
		t.logger.Warn("save discovery progress", zap.Error(err))
	}
}

// watch forwards PresaleCreated logs to out and resubscribes with backoff
// whenever the subscription fails. Subscriptions that drop soon after
// being established back off too.
func (t *Tracker) watch(ctx context.Context, out chan<- types.Log) {
	manager := t.reader.Manager()
	drops := backoff.NewExponentialBackOff()
	drops.InitialInterval = t.resubscribeDelay
	drops.MaxInterval = 30 * time.Second
	for ctx.Err() == nil {
		sink := make(chan types.Log, 16)
		sub, err := backoff.Retry(ctx, func() (ethereum.Subscription, error) {
			return manager.WatchPresaleCreated(ctx, sink)
		},
			backoff.WithBackOff(backoff.NewExponentialBackOff()),
			backoff.WithMaxElapsedTime(time.Minute),
			backoff.WithNotify(func(err error, next time.Duration) {
				t.logger.Warn("subscribe PresaleCreated", zap.Error(err), zap.Duration("retry_in", next))
			}),
		)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error("PresaleCreated subscription unavailable, retrying", zap.Error(err))
			continue
		}

		established := time.Now()
		t.forward(ctx, sub, sink, out)
		sub.Unsubscribe()
		if ctx.Err() != nil {
			return
		}
		observability.RecordResubscribe()

		if time.Since(established) > time.Minute {
			drops.Reset()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(drops.NextBackOff()):
		}
	}
}

func (t *Tracker) forward(ctx context.Context, sub ethereum.Subscription, sink <-chan types.Log, out chan<- types.Log) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			t.logger.Warn("PresaleCreated subscription dropped", zap.Error(err))
			return
		case l := <-sink:
			select {
			case out <- l:
			case <-ctx.Done():
				return
			}
		}
	}
}
