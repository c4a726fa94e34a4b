package service

import "errors"

// Error is the taxonomy JobService surfaces to its callers. Every
// method returns either nil, one of these sentinels (wrapped with
// additional context via fmt.Errorf("%w", ...) where useful), or a
// bare error for unexpected store/admission failures that callers
// should treat as INTERNAL_ERROR.
var (
	// ErrUnauthorized indicates the submitted credential does not
	// resolve to any tenant.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the credential resolved to a tenant that
	// does not own the requested resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates no job or DLQ entry matches the request.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the tenant's token bucket is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrConcurrencyExceeded indicates the tenant is already running
	// its maximum number of concurrent jobs.
	ErrConcurrencyExceeded = errors.New("concurrency exceeded")

	// ErrValidation indicates a malformed submission (e.g. negative
	// max_retries).
	ErrValidation = errors.New("validation error")
)
