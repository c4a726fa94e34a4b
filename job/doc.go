// Package job defines the stateful representation of a job within the
// jobqueue lifecycle.
//
// A Job augments an inbound submission with delivery and scheduling
// metadata: Status, RetryCount, lease ownership, and the terminal
// Result/ErrorMessage fields. These fields are maintained exclusively by
// the queue's Store and Worker; application code never mutates them
// directly.
//
// Job values are typically returned by Store operations (ClaimNextPending,
// CompleteJob, ...) and represent authoritative snapshots of storage
// state at the time they were produced.
package job
