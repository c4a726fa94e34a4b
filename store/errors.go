package store

import "errors"

var (
	// ErrLeaseLost indicates the caller no longer owns the job's lease:
	// either the lease expired and another worker already claimed the
	// job, or workerId does not match the job's current owner.
	//
	// RenewLease, CompleteJob, and FailAndRetry all return ErrLeaseLost
	// rather than silently applying the caller's update to a job it no
	// longer owns.
	ErrLeaseLost = errors.New("lease lost")

	// ErrIdempotencyConflict is returned by CreateJob when the
	// (tenant_id, idempotency_key) unique index rejects an insert and the
	// row it collided with cannot be found on re-read (it was deleted by
	// a concurrent PurgeTerminal between the insert and the lookup). In
	// the ordinary race — another submission with the same key beat this
	// one — CreateJob finds that row and returns it with created=false
	// instead of this error.
	ErrIdempotencyConflict = errors.New("idempotency key conflict")

	// ErrTenantNotFound indicates no Tenant row matches the given id.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNotFound indicates no Job or DLQEntry matches the given id,
	// scoped to the requesting tenant.
	ErrNotFound = errors.New("not found")

	// ErrBadStatus indicates PurgeTerminal was asked to delete a
	// non-terminal status (PENDING or RUNNING).
	ErrBadStatus = errors.New("bad job status")
)
