package admission

import "errors"

var (
	// ErrRateLimited is returned by Reserve when a tenant has exhausted its
	// per-minute token bucket. The submission was rejected before any job
	// row was created.
	ErrRateLimited = errors.New("rate limited")

	// ErrConcurrencyExceeded is returned by Reserve when a tenant already
	// has max_concurrent_jobs RUNNING. The submission was rejected before
	// any job row was created.
	ErrConcurrencyExceeded = errors.New("concurrency limit exceeded")
)

// Limits is the pair of admission limits configured per tenant.
type Limits struct {
	MaxConcurrentJobs  int
	RateLimitPerMinute int
}

// Gate enforces per-tenant rate limiting and concurrency caps. It holds no
// reference to storage: callers decide what "reserve" means (a fresh
// submission) and what "release" means (a job leaving RUNNING).
//
// A Gate is safe for concurrent use and has no background goroutines; it
// is pure in-memory bookkeeping, which is why limits reset on process
// restart (see SPEC_FULL.md's admission-control design notes).
type Gate struct {
	buckets *buckets
	conc    *concurrency
}

// NewGate creates an empty Gate.
func NewGate() *Gate {
	return &Gate{
		buckets: newBuckets(),
		conc:    newConcurrency(),
	}
}

// Reserve checks the rate limit and concurrency cap for tenantId, in that
// order, and reports the first violation found. On success, the tenant's
// running count is incremented; the caller must call Release exactly once
// when the job reaches COMPLETED, FAILED or DLQ, or when its lease is
// reclaimed — never on a plain retry-return-to-pending (see Release).
func (g *Gate) Reserve(tenantId string, limits Limits) error {
	if !g.buckets.allow(tenantId, limits.RateLimitPerMinute) {
		return ErrRateLimited
	}
	if !g.conc.tryReserve(tenantId, limits.MaxConcurrentJobs) {
		return ErrConcurrencyExceeded
	}
	return nil
}

// Release frees a previously reserved concurrency slot for tenantId. The
// Worker calls it on COMPLETED, FAILED and DLQ, and the WorkerPool's
// reaper calls it on lease reclaim — never on a plain retry that sends a
// job back to PENDING. A retried job is still
// "owned" by the tenant's concurrency budget until it reaches a terminal
// state or its lease is reclaimed; only those transitions free the slot.
func (g *Gate) Release(tenantId string) {
	g.conc.release(tenantId)
}

// Inflight reports tenantId's current RUNNING count, as tracked by this
// Gate.
func (g *Gate) Inflight(tenantId string) int {
	return g.conc.inflight(tenantId)
}

// Seed overwrites every tenant's concurrency counter from counts, a
// map of tenantId to its current RUNNING count. Call it once at
// startup, before any Worker begins claiming, to rebuild the in-memory
// counter this process lost on its last restart — the counter itself
// is never persisted, only the jobs table it is derived from.
func (g *Gate) Seed(counts map[string]int64) {
	for tenantId, count := range counts {
		g.conc.seed(tenantId, count)
	}
}
