package jobqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/handler"
	"github.com/brindlehq/jobqueue/internal"
	"github.com/brindlehq/jobqueue/store"
)

// PoolConfig configures a WorkerPool.
//
// Size is the number of Worker instances run concurrently, each
// independently polling the shared Store.
//
// ReapInterval defaults to half the configured LeaseTTL when zero, per
// the reaper cadence named in the queue's design notes.
type PoolConfig struct {
	Size         int
	Worker       WorkerConfig
	ReapInterval time.Duration
}

// WorkerPool supervises Size Worker instances sharing one Store handle,
// plus a single lease reaper that periodically reclaims RUNNING jobs
// whose lease has expired (a crashed or stalled worker). It propagates
// one shutdown signal to every worker and the reaper, and waits for all
// of them to drain.
type WorkerPool struct {
	lcBase
	workers   []*Worker
	reapTask  internal.TimerTask
	store     store.Store
	admission *admission.Gate
	bus       *eventbus.Bus
	log       *slog.Logger
	interval  time.Duration
}

// NewWorkerPool creates a WorkerPool of config.Size Workers, each with a
// distinct worker id derived from prefix, sharing store s, gate, bus,
// and handler h.
func NewWorkerPool(prefix string, s store.Store, gate *admission.Gate, bus *eventbus.Bus, h handler.Func, config *PoolConfig, log *slog.Logger) *WorkerPool {
	interval := config.ReapInterval
	if interval <= 0 {
		interval = config.Worker.LeaseTTL / 2
	}
	workers := make([]*Worker, config.Size)
	for i := range workers {
		id := fmt.Sprintf("%s-%d", prefix, i)
		workers[i] = NewWorker(id, s, gate, bus, h, &config.Worker, log)
	}
	return &WorkerPool{
		workers:   workers,
		store:     s,
		admission: gate,
		bus:       bus,
		log:       log,
		interval:  interval,
	}
}

// reap reclaims every RUNNING job whose lease has expired — the mark of
// a crashed or stalled worker — and, for each one, releases its
// tenant's concurrency slot and publishes JOB_RETRY. Unlike a plain
// retry in Worker.handle, which publishes JOB_RETRY but keeps the slot,
// a reclaim frees the slot.
func (wp *WorkerPool) reap(ctx context.Context) bool {
	jobs, err := wp.store.ReclaimExpiredLeases(ctx, time.Now())
	if err != nil {
		wp.log.Error("lease reclaim failed", "err", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}
	wp.log.Info("reclaimed expired leases", "count", len(jobs))
	for _, j := range jobs {
		wp.admission.Release(j.TenantId)
		wp.bus.Publish(eventbus.Event{
			Type:      eventbus.JobRetry,
			JobId:     j.Id,
			TenantId:  j.TenantId,
			TraceId:   j.TraceId,
			Timestamp: time.Now(),
		})
	}
	return false
}

// Start launches every Worker and the lease reaper. Start returns
// ErrDoubleStarted if the pool has already been started.
func (wp *WorkerPool) Start(ctx context.Context) error {
	if err := wp.tryStart(); err != nil {
		return err
	}
	for _, w := range wp.workers {
		if err := w.Start(ctx); err != nil {
			wp.log.Error("worker failed to start", "err", err)
		}
	}
	wp.reapTask.Start(ctx, wp.reap, wp.interval)
	return nil
}

// Stop signals every Worker and the reaper to shut down, waiting up to
// timeout total for them to drain. Stop returns ErrDoubleStopped if the
// pool is not running.
func (wp *WorkerPool) Stop(timeout time.Duration) error {
	return wp.tryStop(timeout, wp.doStop)
}

func (wp *WorkerPool) doStop() internal.DoneChan {
	done := wp.reapTask.Stop()
	for _, w := range wp.workers {
		workerDone := make(internal.DoneChan)
		go func(w *Worker) {
			defer close(workerDone)
			if err := w.Stop(wp.interval); err != nil {
				wp.log.Error("worker failed to stop cleanly", "err", err)
			}
		}(w)
		done = internal.Combine(done, workerDone)
	}
	return done
}
