// Package service implements JobService, the tenant-facing submission
// and read API in front of store.Store, admission.Gate, and
// eventbus.Bus.
//
// JobService.Submit performs exactly the five steps named for it:
// resolve tenant by credential, check admission (rate then
// concurrency), create the job, publish JOB_SUBMITTED on a fresh
// insert, and return. An idempotency hit returns the existing job
// without publishing an event and gives its concurrency slot back — a
// resubmission of the same (tenant, idempotency key) is not a new unit
// of work. The admission check still runs before the store lookup, so a
// hit consumes a rate-limit token and is rejected when the tenant is
// over either limit.
//
// The read paths (Get, List, DLQList, Metrics) are tenant-scoped at the
// Store layer, not only here, so a caller cannot bypass isolation by
// reaching the Store directly.
package service
