package jobqueue

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffConfig controls the delay a Worker waits before retrying its
// claim poll after a Store infrastructure error (database unavailable,
// connection reset). It has nothing to do with the job retry ladder:
// per-job retries return to PENDING immediately with no scheduled delay,
// per the queue's own retry semantics. This backoff only throttles a
// worker's own polling against a misbehaving store.
type BackoffConfig struct {
	MaxRetries          uint32
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
}

type backoffCounter struct {
	BackoffConfig
}

func (bc *backoffCounter) next(attempt uint32) (time.Duration, bool) {
	if bc.MaxRetries > 0 && attempt > bc.MaxRetries {
		return 0, false
	}
	exp := float64(bc.InitialInterval) * math.Pow(bc.Multiplier, float64(attempt-1))
	if exp > float64(bc.MaxInterval) {
		exp = float64(bc.MaxInterval)
	}
	if bc.RandomizationFactor > 0 {
		delta := bc.RandomizationFactor * exp
		minExp := exp - delta
		maxExp := exp + delta
		exp = minExp + rand.Float64()*(maxExp-minExp)
	}
	return time.Duration(exp), true
}
