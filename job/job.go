package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Job is the primary queue entity: an opaque submission plus the
// delivery state and scheduling metadata the Store and Worker maintain.
//
// Status transitions exclusively through Store operations performed by a
// Worker or the lease reaper; see Status for the full state machine.
//
// Invariants (enforced by the Store, not by this type):
//
//	Status == Pending    => WorkerID == "" && LeaseExpiresAt == nil && CompletedAt == nil
//	Status == Running    => WorkerID, LeaseExpiresAt, StartedAt all set
//	Status in terminal{}  => CompletedAt set, WorkerID and LeaseExpiresAt cleared
//	RetryCount <= MaxRetries
type Job struct {
	Id             uuid.UUID
	TenantId       string
	Status         Status
	Payload        json.RawMessage
	Result         json.RawMessage
	ErrorMessage   string
	IdempotencyKey string
	TraceId        string

	RetryCount int
	MaxRetries int

	WorkerId       string
	LeaseExpiresAt *time.Time

	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Terminal reports whether Status is one of the queue's terminal states
// (Completed, Failed, or DLQ).
func (j *Job) Terminal() bool {
	return j.Status == Completed || j.Status == Failed || j.Status == DLQ
}
