// Package jobqueue is a durable, multi-tenant job queue and worker
// runtime with at-least-once delivery semantics.
//
// # Overview
//
// A submission (package submission) becomes a Job (package job) once
// accepted by a JobService (package service): an opaque payload plus the
// delivery state — status, retry count, lease — a Store (package store)
// maintains durably. Workers claim PENDING jobs, run a pluggable
// handler.Func, and resolve the outcome back through the Store.
//
// # State Machine
//
// Jobs follow this lifecycle:
//
//	PENDING   -> RUNNING
//	RUNNING   -> COMPLETED
//	RUNNING   -> PENDING     (retry, via FailAndRetry)
//	RUNNING   -> FAILED      (single-attempt job exhausts its zero retries)
//	RUNNING   -> DLQ         (retry ceiling reached, or PermanentFailure)
//
// COMPLETED, FAILED, and DLQ are terminal.
//
// # Delivery Semantics
//
// The queue provides at-least-once delivery. A job may be delivered more
// than once if a worker crashes, stalls past its lease, or loses its
// lease to a reaper mid-execution. Handlers must be idempotent.
//
// Visibility Timeout (Lease Model)
//
// When a job is claimed, it transitions from PENDING to RUNNING and
// receives a lease (LeaseExpiresAt). While the lease is valid, the job is
// not eligible for claiming by another worker. Worker renews the lease
// while its handler runs; if renewal fails, the handler's context is
// canceled and any result it produces afterward is discarded.
//
// If the lease expires before completion — because a worker crashed —
// the job becomes eligible again once a WorkerPool's reaper reclaims it.
//
// # Retry Policy
//
// A job retries up to MaxRetries times, returning to PENDING immediately
// with no scheduled delay. Once the ceiling is reached, or a handler
// returns a *handler.PermanentFailure, the job is promoted to DLQ (or, for
// a single-attempt job with MaxRetries == 0, to FAILED) and is not
// retried further.
//
// # Admission Control
//
// Submission is gated per tenant by admission.Gate: a token-bucket rate
// limit and a concurrency cap, both held in memory and reset on process
// restart. A rejected submission never creates a job row.
//
// # Components
//
//	store      — durable persistence contract (jobs, tenants, DLQ entries)
//	admission  — per-tenant rate limiting and concurrency caps
//	service    — submission API: authenticate, admit, create, notify
//	handler    — pluggable business logic contract
//	eventbus   — in-process, best-effort pub/sub for lifecycle events
//	gateway    — bridges eventbus subscriptions to long-lived connections
//	Worker / WorkerPool (this package) — claim, dispatch, lease renewal,
//	  reaping
//
// # Concurrency Model
//
// Each Worker claims and processes one job at a time; a WorkerPool runs
// several Workers sharing one Store handle plus a single lease reaper.
// Shutdown is cooperative: a Worker finishing its current job observes
// the shutdown signal on its next poll and exits. In-flight jobs are not
// force-cancelled at shutdown; their leases simply expire and are
// reclaimed by the next pool instance.
package jobqueue
