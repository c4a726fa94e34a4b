package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DLQEntry is an immutable copy-forward of a Job that exhausted its
// retry ceiling or failed permanently. Once written, a DLQEntry is never
// modified; re-processing a dead-lettered job is an operator action that
// creates a new Job, not a mutation of the entry.
type DLQEntry struct {
	Id        uuid.UUID
	JobId     uuid.UUID
	TenantId  string
	Payload   json.RawMessage
	Error     string
	CreatedAt time.Time // original Job.CreatedAt
	DLQAt     time.Time // when the entry was written
}
