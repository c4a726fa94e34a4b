package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/brindlehq/jobqueue/job"
)

// Stub is the built-in handler: it sleeps for the given duration (or
// until ctx is canceled, whichever comes first) and then reports
// success, echoing the job's payload back as its result. It exists for
// exercising the queue end-to-end without a real deployment's business
// logic wired in.
func Stub(sleep time.Duration) Func {
	return func(ctx context.Context, j *job.Job) (json.RawMessage, error) {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		return j.Payload, nil
	}
}
