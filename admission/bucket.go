package admission

import (
	"sync"

	"golang.org/x/time/rate"
)

// buckets is a set of per-tenant token buckets, created lazily on first
// use and sized from the tenant's configured rate_limit_per_minute.
//
// golang.org/x/time/rate.Limiter already computes its refill lazily from
// a wall-clock delta on every call, which is exactly the semantics a
// per-tenant rate limiter needs here; there is no reason to hand-roll
// the arithmetic.
type buckets struct {
	mu   sync.Mutex
	byId map[string]*rate.Limiter
}

func newBuckets() *buckets {
	return &buckets{byId: make(map[string]*rate.Limiter)}
}

func (b *buckets) get(tenantId string, perMinute int) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	lim, ok := b.byId[tenantId]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
		b.byId[tenantId] = lim
	}
	return lim
}

// allow reports whether tenantId has a token available under its
// perMinute rate limit, consuming one if so. It never blocks.
//
// perMinute <= 0 is a valid, deliberately unusable bucket: it is sized
// with burst 0, so rate.Limiter.Allow always reports false — a tenant
// configured with rate_limit_per_minute = 0 is admitted nothing, not
// unmetered.
func (b *buckets) allow(tenantId string, perMinute int) bool {
	return b.get(tenantId, perMinute).Allow()
}
