package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/submission"
	"github.com/brindlehq/jobqueue/tenant"
)

// Store is the durable persistence contract for jobs, tenants, and
// dead-letter entries. Every method that mutates job state performs its
// transition atomically and enforces the ownership/status preconditions
// documented on it; none of this package's callers are trusted to
// synchronize with each other outside of what Store itself guarantees.
type Store interface {
	// GetTenant returns the tenant identified by tenantId, or
	// ErrTenantNotFound if none exists.
	GetTenant(ctx context.Context, tenantId string) (*tenant.Tenant, error)

	// GetTenantByAPIKey resolves the tenant owning apiKey, the
	// credential JobService.Submit authenticates against, or
	// ErrTenantNotFound if no tenant's APIKey matches.
	GetTenantByAPIKey(ctx context.Context, apiKey string) (*tenant.Tenant, error)

	// CreateJob inserts a new Job from sub and returns it.
	//
	// If sub.IdempotencyKey is non-empty and a job already exists for
	// (sub.TenantId, sub.IdempotencyKey), CreateJob returns that existing
	// Job with created=false instead of inserting a duplicate; the
	// (tenant_id, idempotency_key) uniqueness is enforced by a database
	// index, not merely checked-then-inserted in application code.
	//
	// Returns ErrIdempotencyConflict in the rare case where the insert
	// collides on that index but the colliding row can no longer be
	// found.
	CreateJob(ctx context.Context, sub *submission.Submission) (j *job.Job, created bool, err error)

	// ClaimNextPending atomically selects one eligible PENDING job —
	// ordered by created_at ASC, id ASC, using a locking read that skips
	// rows locked by other transactions — and transitions it to RUNNING,
	// setting WorkerId, StartedAt, and LeaseExpiresAt = now + lease.
	//
	// ClaimNextPending returns (nil, nil) if no eligible job exists.
	ClaimNextPending(ctx context.Context, workerId string, lease time.Duration) (*job.Job, error)

	// RenewLease extends the lease of a job currently RUNNING and owned
	// by workerId, setting LeaseExpiresAt = now + lease.
	//
	// Returns ErrLeaseLost if the job is not RUNNING or is owned by a
	// different worker.
	RenewLease(ctx context.Context, jobId uuid.UUID, workerId string, lease time.Duration) error

	// CompleteJob transitions a job from RUNNING to COMPLETED, recording
	// result and CompletedAt, and clears WorkerId/LeaseExpiresAt.
	//
	// Returns ErrLeaseLost if the job is not RUNNING or is owned by a
	// different worker.
	CompleteJob(ctx context.Context, jobId uuid.UUID, workerId string, result json.RawMessage) error

	// FailAndRetry records errMsg against a RUNNING job owned by workerId
	// and applies the retry ladder:
	//
	//   - RetryCount < MaxRetries: increments RetryCount, transitions back
	//     to PENDING, clears WorkerId/LeaseExpiresAt. Returns job.Pending.
	//   - RetryCount >= MaxRetries (including MaxRetries == 0): transitions
	//     to DLQ if MaxRetries > 0, or FAILED if MaxRetries == 0, sets
	//     CompletedAt, and — for DLQ only — writes a DLQEntry. Returns the
	//     resulting terminal status.
	//
	// permanent, if true, bypasses the retry ladder entirely and forces
	// an immediate DLQ transition with a DLQEntry, regardless of
	// RetryCount/MaxRetries, per a handler's PermanentFailure.
	//
	// Returns ErrLeaseLost if the job is not RUNNING or is owned by a
	// different worker.
	FailAndRetry(ctx context.Context, jobId uuid.UUID, workerId string, errMsg string, permanent bool) (job.Status, error)

	// ReclaimExpiredLeases transitions every RUNNING job whose
	// LeaseExpiresAt has passed back to PENDING, clearing WorkerId and
	// LeaseExpiresAt. RetryCount is deliberately not incremented by a
	// reclaim; only FailAndRetry increments it. Returns the reclaimed
	// jobs themselves (post-transition), so the caller can release each
	// one's tenant concurrency slot and publish a JOB_RETRY event.
	ReclaimExpiredLeases(ctx context.Context, now time.Time) ([]*job.Job, error)

	// GetJob returns the job identified by jobId, scoped to tenantId.
	// Returns ErrNotFound if no such job exists for that tenant.
	GetJob(ctx context.Context, tenantId string, jobId uuid.UUID) (*job.Job, error)

	// ListJobs returns up to limit jobs for tenantId matching status
	// (job.Unknown means no status filter), ordered by created_at DESC,
	// starting after offset.
	ListJobs(ctx context.Context, tenantId string, status job.Status, limit, offset int) ([]*job.Job, error)

	// DLQList returns up to limit DLQEntry rows for tenantId, most recent
	// first, starting after offset.
	DLQList(ctx context.Context, tenantId string, limit, offset int) ([]*job.DLQEntry, error)

	// Summarize computes a fresh per-status count for tenantId.
	Summarize(ctx context.Context, tenantId string) (*Summary, error)

	// RunningCounts computes every tenant's current RUNNING count in a
	// single GROUP BY, for seeding admission.Gate's in-memory
	// concurrency counter on process startup (spec: the counter "is
	// rebuilt by a single GROUP BY over status=RUNNING").
	RunningCounts(ctx context.Context) (map[string]int64, error)

	// RecordMetricsSnapshot writes one roll-up row per tenant/status
	// combination returned by Summarize across all tenants, stamped with
	// computedAt. It is the write side of the periodic metrics table
	// described alongside Summary; Summarize itself never reads it back.
	RecordMetricsSnapshot(ctx context.Context, computedAt time.Time) error

	// PurgeTerminal deletes jobs in a terminal status (COMPLETED, FAILED,
	// or DLQ; job.Unknown means any terminal status) whose CompletedAt is
	// at or before the before cutoff. If before is nil, no age filter is
	// applied. Returns the number of rows deleted.
	//
	// Returns ErrBadStatus if status is PENDING or RUNNING: PurgeTerminal
	// must never delete a job that is still live.
	PurgeTerminal(ctx context.Context, status job.Status, before *time.Time) (int64, error)
}
