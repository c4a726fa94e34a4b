package eventbus

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of lifecycle transition an Event reports.
type Type string

const (
	JobSubmitted Type = "JOB_SUBMITTED"
	JobStarted   Type = "JOB_STARTED"
	JobCompleted Type = "JOB_COMPLETED"
	JobRetry     Type = "JOB_RETRY"
	JobFailed    Type = "JOB_FAILED"
	JobDLQ       Type = "JOB_DLQ"
)

// Event is a point-in-time notification of a job lifecycle transition.
// Events are informational only: a subscriber that never sees one (or
// sees it late, or not at all because its buffer was full) has no way to
// observe that loss other than by polling the Store directly.
type Event struct {
	Type      Type            `json:"type"`
	JobId     uuid.UUID       `json:"job_id"`
	TenantId  string          `json:"tenant_id"`
	TraceId   string          `json:"trace_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
