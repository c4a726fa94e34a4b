package handler

import (
	"context"
	"encoding/json"

	"github.com/brindlehq/jobqueue/job"
)

// Func executes the business logic for a claimed job and returns its
// result payload.
//
// ctx is derived from the job's lease: it is canceled if the Worker
// fails to renew the lease before it expires (because a reaper already
// reclaimed the job), signalling the handler to abandon the attempt. A
// Func must not leak resources when ctx is canceled, and any result it
// returns after cancellation is discarded by the Worker.
//
// A returned error is treated as retryable unless it is — or wraps, via
// errors.As — a *PermanentFailure, in which case the Worker bypasses the
// retry ladder and promotes the job directly to DLQ.
type Func func(ctx context.Context, j *job.Job) (json.RawMessage, error)
