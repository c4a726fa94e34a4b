package submission

import "encoding/json"

// DefaultMaxRetries is applied when a Submission omits MaxRetries, per
// the submission API's documented default.
const DefaultMaxRetries = 3

// Submission is the client-facing request to enqueue one unit of work.
//
// TenantId is set by JobService.Submit from the tenant resolved from the
// caller's credential, replacing any value the caller put there; it is
// not itself a credential.
//
// IdempotencyKey, if non-empty, must be unique within TenantId. Resubmitting
// the same (TenantId, IdempotencyKey) pair returns the original Job without
// creating a new one or publishing a second JOB_SUBMITTED event.
//
// MaxRetries, if nil, defaults to DefaultMaxRetries.
type Submission struct {
	TenantId       string
	Payload        json.RawMessage
	IdempotencyKey string
	MaxRetries     *int
}

// Retries returns the effective retry ceiling for this submission.
func (s *Submission) Retries() int {
	if s.MaxRetries == nil {
		return DefaultMaxRetries
	}
	if *s.MaxRetries < 0 {
		return 0
	}
	return *s.MaxRetries
}
