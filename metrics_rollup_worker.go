package jobqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/brindlehq/jobqueue/internal"
	"github.com/brindlehq/jobqueue/store"
)

// MetricsRollupWorker periodically snapshots every tenant's job-status
// counts into the metrics table via Store.RecordMetricsSnapshot, so an
// operator can chart roll-up history without re-scanning jobs on every
// dashboard refresh. It never reads the metrics table; JobService.Metrics
// serves live counts straight from Store.Summarize instead.
type MetricsRollupWorker struct {
	lcBase
	store    store.Store
	task     internal.TimerTask
	log      *slog.Logger
	interval time.Duration
}

// NewMetricsRollupWorker creates a MetricsRollupWorker against the given
// Store. The worker is inert until Start is called.
func NewMetricsRollupWorker(s store.Store, interval time.Duration, log *slog.Logger) *MetricsRollupWorker {
	return &MetricsRollupWorker{store: s, log: log, interval: interval}
}

func (mw *MetricsRollupWorker) rollup(ctx context.Context) bool {
	if err := mw.store.RecordMetricsSnapshot(ctx, time.Now()); err != nil {
		mw.log.Error("metrics rollup failed", "err", err)
	}
	return false
}

// Start begins periodic snapshotting. Start returns ErrDoubleStarted if
// already started.
func (mw *MetricsRollupWorker) Start(ctx context.Context) error {
	if err := mw.tryStart(); err != nil {
		return err
	}
	mw.task.Start(ctx, mw.rollup, mw.interval)
	return nil
}

// Stop terminates the background rollup task, waiting up to timeout for
// the current run to finish.
func (mw *MetricsRollupWorker) Stop(timeout time.Duration) error {
	return mw.tryStop(timeout, mw.task.Stop)
}
