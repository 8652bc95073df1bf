package stats

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsel-ticketmaster/tm-registration/pkg/realtime"
)

// Broadcaster periodically collects a statistics snapshot and pushes it to
// every member of the admin statistics channel. A tick that fails to collect
// is logged and skipped; the next tick starts from a clean slate.
type Broadcaster struct {
	logger       *logrus.Logger
	interval     time.Duration
	statsUseCase StatsUseCase
	hub          realtime.Hub
	running      atomic.Bool
}

type BroadcasterProperty struct {
	Logger       *logrus.Logger
	Interval     time.Duration
	StatsUseCase StatsUseCase
	Hub          realtime.Hub
}

func NewBroadcaster(props BroadcasterProperty) *Broadcaster {
	return &Broadcaster{
		logger:       props.Logger,
		interval:     props.Interval,
		statsUseCase: props.StatsUseCase,
		hub:          props.Hub,
	}
}

// Run blocks until ctx is cancelled. Ticks never overlap: if a collection is
// still in flight when the next tick fires, that tick is dropped.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.WithContext(ctx).WithFields(logrus.Fields{
		"interval": b.interval.String(),
	}).Info("stats broadcaster started")

	for {
		select {
		case <-ctx.Done():
			b.logger.WithContext(ctx).Info("stats broadcaster stopped")
			return
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}

// Tick runs one collect-and-push cycle. It returns false when the cycle was
// skipped because a previous one is still running, or when collection failed.
func (b *Broadcaster) Tick(ctx context.Context) bool {
	if !b.running.CompareAndSwap(false, true) {
		b.logger.WithContext(ctx).Warn("previous stats collection still running, skipping tick")
		return false
	}
	defer b.running.Store(false)

	snapshot, err := b.statsUseCase.CollectSnapshot(ctx)
	if err != nil {
		b.logger.WithContext(ctx).WithError(err).Error("an error occurred while collecting stats snapshot")
		return false
	}

	b.hub.Deliver(realtime.AdminStatsChannel, realtime.Message{
		Event:   "realtime-stats-update",
		Payload: snapshot,
	})

	return true
}
