package sql

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/tenant"
)

type tenantModel struct {
	bun.BaseModel `bun:"table:tenants"`

	TenantId           string `bun:"tenant_id,pk"`
	APIKey             string `bun:"api_key,notnull"`
	MaxConcurrentJobs  int    `bun:"max_concurrent_jobs,notnull,default:0"`
	RateLimitPerMinute int    `bun:"rate_limit_per_minute,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (tm *tenantModel) toTenant() *tenant.Tenant {
	return &tenant.Tenant{
		TenantId:           tm.TenantId,
		APIKey:             tm.APIKey,
		MaxConcurrentJobs:  tm.MaxConcurrentJobs,
		RateLimitPerMinute: tm.RateLimitPerMinute,
		CreatedAt:          tm.CreatedAt,
		UpdatedAt:          tm.UpdatedAt,
	}
}

type jobModel struct {
	bun.BaseModel `bun:"table:jobs"`

	Id       uuid.UUID  `bun:"id,pk,type:uuid"`
	TenantId string     `bun:"tenant_id,notnull"`
	Status   job.Status `bun:"status,notnull"`

	Payload      json.RawMessage `bun:"payload,type:jsonb"`
	Result       json.RawMessage `bun:"result,type:jsonb"`
	ErrorMessage string          `bun:"error_message"`
	TraceId      string          `bun:"trace_id"`

	// IdempotencyKey is nullable so the unique (tenant_id,
	// idempotency_key) index never collides two keyless submissions:
	// an empty string column value would, but NULL values don't.
	IdempotencyKey *string `bun:"idempotency_key,nullzero"`

	RetryCount int `bun:"retry_count,notnull,default:0"`
	MaxRetries int `bun:"max_retries,notnull,default:0"`

	WorkerId       string     `bun:"worker_id"`
	LeaseExpiresAt *time.Time `bun:"lease_expires_at,nullzero"`

	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
}

func (jm *jobModel) toJob() *job.Job {
	var idemKey string
	if jm.IdempotencyKey != nil {
		idemKey = *jm.IdempotencyKey
	}
	return &job.Job{
		Id:             jm.Id,
		TenantId:       jm.TenantId,
		Status:         jm.Status,
		Payload:        jm.Payload,
		Result:         jm.Result,
		ErrorMessage:   jm.ErrorMessage,
		IdempotencyKey: idemKey,
		TraceId:        jm.TraceId,
		RetryCount:     jm.RetryCount,
		MaxRetries:     jm.MaxRetries,
		WorkerId:       jm.WorkerId,
		LeaseExpiresAt: jm.LeaseExpiresAt,
		CreatedAt:      jm.CreatedAt,
		StartedAt:      jm.StartedAt,
		CompletedAt:    jm.CompletedAt,
	}
}

type dlqModel struct {
	bun.BaseModel `bun:"table:dlq"`

	Id       uuid.UUID `bun:"id,pk,type:uuid"`
	JobId    uuid.UUID `bun:"job_id,notnull"`
	TenantId string    `bun:"tenant_id,notnull"`

	Payload json.RawMessage `bun:"payload,type:jsonb"`
	Error   string          `bun:"error"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull"`
	DLQAt     time.Time `bun:"dlq_at,nullzero,notnull,default:current_timestamp"`
}

func (dm *dlqModel) toDLQEntry() *job.DLQEntry {
	return &job.DLQEntry{
		Id:        dm.Id,
		JobId:     dm.JobId,
		TenantId:  dm.TenantId,
		Payload:   dm.Payload,
		Error:     dm.Error,
		CreatedAt: dm.CreatedAt,
		DLQAt:     dm.DLQAt,
	}
}

// metricsModel is a periodic roll-up snapshot, independent from the live
// Summarize aggregate query: one row per (tenant_id, status, computed_at)
// written by MetricsRollupWorker.
type metricsModel struct {
	bun.BaseModel `bun:"table:metrics,alias:m"`

	Id         int64      `bun:"id,pk,autoincrement"`
	TenantId   string     `bun:"tenant_id,notnull"`
	Status     job.Status `bun:"status,notnull"`
	Count      int64      `bun:"count,notnull"`
	ComputedAt time.Time  `bun:"computed_at,notnull"`
}
