package jobqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/handler"
	"github.com/brindlehq/jobqueue/internal"
	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/store"
)

// WorkerConfig defines runtime behavior of a Worker.
//
// PollInterval defines how often the worker polls the Store for a
// claimable job when idle.
//
// LeaseTTL defines the visibility timeout assigned to each claimed job;
// the worker renews it at LeaseTTL/2 while its handler runs.
//
// PollBackoff defines the delay applied between poll attempts after a
// Store infrastructure error. It is independent of the job retry ladder,
// which returns a failed job to PENDING with no scheduled delay.
type WorkerConfig struct {
	PollInterval time.Duration
	LeaseTTL     time.Duration
	PollBackoff  BackoffConfig
}

// Worker runs the queue's hot loop: claim, dispatch to a handler, renew
// the lease while the handler runs, and resolve the outcome.
//
//  1. Poll the Store for one eligible PENDING job.
//  2. The Store atomically transitions it to RUNNING with a lease.
//  3. Dispatch it to the configured handler.Func.
//  4. Renew the lease on a timer while the handler runs.
//  5. On success, CompleteJob. On a retryable error, FailAndRetry. On a
//     *handler.PermanentFailure, FailAndRetry promotes straight to DLQ.
//
// Worker implements at-least-once delivery; handlers must be idempotent.
// A single Worker processes one job at a time — run several inside a
// WorkerPool for concurrency.
type Worker struct {
	lcBase
	id        string
	store     store.Store
	admission *admission.Gate
	bus       *eventbus.Bus
	handler   handler.Func
	pool      *internal.WorkerPool[*job.Job]
	pollTask  internal.TimerTask
	log       *slog.Logger

	pollInterval time.Duration
	leaseTTL     time.Duration
	halfLease    time.Duration
	backoff      backoffCounter
	pollFails    atomic.Uint32
}

// NewWorker creates a Worker identified by id, claiming work from s,
// checked against gate's admission limits on release, publishing
// lifecycle events to bus, and dispatching claimed jobs to h.
//
// The worker is not started automatically; call Start to begin polling.
func NewWorker(id string, s store.Store, gate *admission.Gate, bus *eventbus.Bus, h handler.Func, config *WorkerConfig, log *slog.Logger) *Worker {
	return &Worker{
		id:           id,
		store:        s,
		admission:    gate,
		bus:          bus,
		handler:      h,
		pool:         internal.NewWorkerPool[*job.Job](1, 1, log),
		log:          log,
		pollInterval: config.PollInterval,
		leaseTTL:     config.LeaseTTL,
		halfLease:    config.LeaseTTL / 2,
		backoff:      backoffCounter{config.PollBackoff},
	}
}

// poll attempts one claim and reports whether it claimed a job. Under
// load, the caller loops again immediately on a true result instead of
// waiting out the next poll tick, so a backlog drains at full speed.
func (w *Worker) poll(ctx context.Context) bool {
	j, err := w.store.ClaimNextPending(ctx, w.id, w.leaseTTL)
	if err != nil {
		fails := w.pollFails.Add(1)
		delay, _ := w.backoff.next(fails)
		w.log.Error("claim failed", "worker_id", w.id, "err", err, "backoff", delay)
		if delay > 0 {
			time.Sleep(delay)
		}
		return false
	}
	w.pollFails.Store(0)
	if j == nil {
		return false
	}
	w.bus.Publish(eventbus.Event{
		Type:      eventbus.JobStarted,
		JobId:     j.Id,
		TenantId:  j.TenantId,
		TraceId:   j.TraceId,
		Timestamp: time.Now(),
	})
	if !w.pool.Push(j) {
		w.log.Debug("job push interrupted by shutdown", "job_id", j.Id)
	}
	return true
}

type handlerOutcome struct {
	result []byte
	err    error
}

func (w *Worker) runHandler(ctx context.Context, j *job.Job) (*handlerOutcome, error) {
	wrapped, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan handlerOutcome, 1)
	go func() {
		res, err := w.handler(wrapped, j)
		done <- handlerOutcome{result: res, err: err}
	}()

	timer := time.NewTimer(w.halfLease)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			if err := w.store.RenewLease(ctx, j.Id, w.id, w.leaseTTL); err != nil {
				cancel()
				return nil, err
			}
			timer.Reset(w.halfLease)
		case hr := <-done:
			return &hr, nil
		}
	}
}

func (w *Worker) handle(ctx context.Context, j *job.Job) {
	hr, renewErr := w.runHandler(ctx, j)
	if renewErr != nil {
		w.log.Warn("job lease lost during handling", "job_id", j.Id, "err", renewErr)
		return
	}

	if hr.err == nil {
		if err := w.store.CompleteJob(ctx, j.Id, w.id, hr.result); err != nil {
			if errors.Is(err, store.ErrLeaseLost) {
				w.log.Warn("job lease lost on complete", "job_id", j.Id)
				return
			}
			w.log.Error("cannot complete job", "job_id", j.Id, "err", err)
			return
		}
		w.admission.Release(j.TenantId)
		w.bus.Publish(eventbus.Event{Type: eventbus.JobCompleted, JobId: j.Id, TenantId: j.TenantId, TraceId: j.TraceId, Timestamp: time.Now()})
		return
	}

	var perm *handler.PermanentFailure
	permanent := errors.As(hr.err, &perm)

	status, err := w.store.FailAndRetry(ctx, j.Id, w.id, hr.err.Error(), permanent)
	if err != nil {
		if errors.Is(err, store.ErrLeaseLost) {
			w.log.Warn("job lease lost on fail", "job_id", j.Id)
			return
		}
		w.log.Error("cannot fail job", "job_id", j.Id, "err", err)
		return
	}

	switch status {
	case job.Pending:
		w.bus.Publish(eventbus.Event{Type: eventbus.JobRetry, JobId: j.Id, TenantId: j.TenantId, TraceId: j.TraceId, Timestamp: time.Now()})
	case job.DLQ:
		w.admission.Release(j.TenantId)
		w.bus.Publish(eventbus.Event{Type: eventbus.JobDLQ, JobId: j.Id, TenantId: j.TenantId, TraceId: j.TraceId, Timestamp: time.Now()})
	case job.Failed:
		w.admission.Release(j.TenantId)
		w.bus.Publish(eventbus.Event{Type: eventbus.JobFailed, JobId: j.Id, TenantId: j.TenantId, TraceId: j.TraceId, Timestamp: time.Now()})
	}
}

// Start begins polling and processing. Start returns ErrDoubleStarted if
// the worker has already been started.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.tryStart(); err != nil {
		return err
	}
	w.pool.Start(ctx, w.handle)
	w.pollTask.Start(ctx, w.poll, w.pollInterval)
	return nil
}

func (w *Worker) doStop() internal.DoneChan {
	first := w.pollTask.Stop()
	second := w.pool.Stop()
	return internal.Combine(first, second)
}

// Stop initiates graceful shutdown: stop polling, cancel the internal
// dispatch pool, and wait for any in-flight handler to finish, bounded by
// timeout. Stop returns ErrDoubleStopped if the worker is not running.
func (w *Worker) Stop(timeout time.Duration) error {
	return w.tryStop(timeout, w.doStop)
}
