package jobqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/brindlehq/jobqueue/internal"
	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/store"
)

// RetentionConfig controls a RetentionWorker's schedule and filter.
//
// Status restricts purging to one terminal status; job.Unknown purges
// COMPLETED, FAILED, and DLQ alike.
//
// Interval is how often the purge runs.
//
// If Before is true, only jobs whose CompletedAt is older than
// now - Delta are deleted.
type RetentionConfig struct {
	Status   job.Status
	Interval time.Duration
	Before   bool
	Delta    time.Duration
}

// RetentionWorker periodically deletes old terminal jobs from a Store.
// It does not participate in job processing and never touches a
// PENDING or RUNNING job.
//
// RetentionWorker has a strict lifecycle: Start may only be called once,
// and Stop must be called to terminate the background task.
type RetentionWorker struct {
	lcBase
	store    store.Store
	task     internal.TimerTask
	log      *slog.Logger
	status   job.Status
	interval time.Duration
	before   bool
	delta    time.Duration
}

// NewRetentionWorker creates a RetentionWorker against the given Store.
// The worker is inert until Start is called.
func NewRetentionWorker(s store.Store, config *RetentionConfig, log *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		store:    s,
		log:      log,
		status:   config.Status,
		interval: config.Interval,
		before:   config.Before,
		delta:    config.Delta,
	}
}

func (rw *RetentionWorker) beforeStamp() *time.Time {
	if !rw.before {
		return nil
	}
	ret := time.Now()
	if rw.delta != 0 {
		ret = ret.Add(-rw.delta)
	}
	return &ret
}

func (rw *RetentionWorker) purge(ctx context.Context) bool {
	before := rw.beforeStamp()
	count, err := rw.store.PurgeTerminal(ctx, rw.status, before)
	if err != nil {
		rw.log.Error("retention purge failed", "err", err)
		return false
	}
	rw.log.Info("purged terminal jobs", "count", count)
	return false
}

// Start begins periodic purging. Start returns ErrDoubleStarted if
// already started.
func (rw *RetentionWorker) Start(ctx context.Context) error {
	if err := rw.tryStart(); err != nil {
		return err
	}
	rw.task.Start(ctx, rw.purge, rw.interval)
	return nil
}

// Stop terminates the background purge task, waiting up to timeout for
// the current run to finish.
func (rw *RetentionWorker) Stop(timeout time.Duration) error {
	return rw.tryStop(timeout, rw.task.Stop)
}
