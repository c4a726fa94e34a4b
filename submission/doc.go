// Package submission defines the transport-level request accepted by
// JobService.Submit.
//
// A Submission carries only what a caller provides: the tenant's
// credential-resolved identity, the opaque payload, and optional
// idempotency/retry controls. It does not carry any delivery or
// scheduling state — that is the job package's concern once JobService
// has admitted and persisted the submission as a Job.
//
// Submission is intentionally minimal and storage-agnostic, mirroring
// the separation the queue draws between what a client sends and what
// the store tracks.
package submission
