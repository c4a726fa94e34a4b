package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/brindlehq/jobqueue/job"
	gstore "github.com/brindlehq/jobqueue/store"
	"github.com/brindlehq/jobqueue/submission"
	"github.com/brindlehq/jobqueue/tenant"
)

// Store implements store.Store using a SQL backend via github.com/uptrace/bun.
//
// The provided *bun.DB must be properly configured and connected (see
// Open) and have its schema initialized (see InitDB) before use.
type Store struct {
	db *bun.DB
}

// NewStore creates a new SQL-backed Store.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetTenantByAPIKey(ctx context.Context, apiKey string) (*tenant.Tenant, error) {
	var tm tenantModel
	err := s.db.NewSelect().Model(&tm).Where("api_key = ?", apiKey).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gstore.ErrTenantNotFound
		}
		return nil, err
	}
	return tm.toTenant(), nil
}

func (s *Store) GetTenant(ctx context.Context, tenantId string) (*tenant.Tenant, error) {
	var tm tenantModel
	err := s.db.NewSelect().Model(&tm).Where("tenant_id = ?", tenantId).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gstore.ErrTenantNotFound
		}
		return nil, err
	}
	return tm.toTenant(), nil
}

// CreateJob inserts sub as a new job, resolving an idempotency conflict
// by reading back the existing row rather than surfacing the database's
// unique-violation error to the caller.
func (s *Store) CreateJob(ctx context.Context, sub *submission.Submission) (*job.Job, bool, error) {
	if sub.IdempotencyKey != "" {
		existing, err := s.findByIdempotencyKey(ctx, sub.TenantId, sub.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	now := time.Now()
	jm := &jobModel{
		Id:         uuid.New(),
		TenantId:   sub.TenantId,
		Status:     job.Pending,
		Payload:    sub.Payload,
		TraceId:    uuid.NewString(),
		MaxRetries: sub.Retries(),
		CreatedAt:  now,
	}
	if sub.IdempotencyKey != "" {
		jm.IdempotencyKey = &sub.IdempotencyKey
	}

	_, err := s.db.NewInsert().Model(jm).Exec(ctx)
	if err != nil {
		if sub.IdempotencyKey != "" && isUniqueViolation(err) {
			existing, ferr := s.findByIdempotencyKey(ctx, sub.TenantId, sub.IdempotencyKey)
			if ferr != nil {
				return nil, false, ferr
			}
			if existing != nil {
				return existing, false, nil
			}
			return nil, false, gstore.ErrIdempotencyConflict
		}
		return nil, false, err
	}
	return jm.toJob(), true, nil
}

func (s *Store) findByIdempotencyKey(ctx context.Context, tenantId, key string) (*job.Job, error) {
	var jm jobModel
	err := s.db.NewSelect().
		Model(&jm).
		Where("tenant_id = ?", tenantId).
		Where("idempotency_key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return jm.toJob(), nil
}

// ClaimNextPending atomically selects the oldest eligible PENDING job
// (created_at ASC, id ASC) via a locking subquery and transitions it to
// RUNNING in one UPDATE ... RETURNING statement.
func (s *Store) ClaimNextPending(ctx context.Context, workerId string, lease time.Duration) (*job.Job, error) {
	now := time.Now()
	expires := now.Add(lease)

	subQuery := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("id").
		Where("status = ?", job.Pending).
		Order("created_at ASC", "id ASC").
		Limit(1)
	if s.db.Dialect().Name() == dialect.PG {
		subQuery = subQuery.For("UPDATE SKIP LOCKED")
	}

	var jm jobModel
	err := s.db.NewUpdate().
		Model(&jm).
		Set("status = ?", job.Running).
		Set("worker_id = ?", workerId).
		Set("started_at = ?", now).
		Set("lease_expires_at = ?", expires).
		Where("id = (?)", subQuery).
		Returning("*").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return jm.toJob(), nil
}

func (s *Store) RenewLease(ctx context.Context, jobId uuid.UUID, workerId string, lease time.Duration) error {
	expires := time.Now().Add(lease)
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("lease_expires_at = ?", expires).
		Where("id = ?", jobId).
		Where("status = ?", job.Running).
		Where("worker_id = ?", workerId).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return gstore.ErrLeaseLost
	}
	return nil
}

func (s *Store) CompleteJob(ctx context.Context, jobId uuid.UUID, workerId string, result json.RawMessage) error {
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Completed).
		Set("result = ?", result).
		Set("completed_at = ?", now).
		Set("worker_id = ?", "").
		Set("lease_expires_at = NULL").
		Where("id = ?", jobId).
		Where("status = ?", job.Running).
		Where("worker_id = ?", workerId).
		Exec(ctx)
	if err != nil {
		return err
	}
	if !isAffected(res) {
		return gstore.ErrLeaseLost
	}
	return nil
}

func (s *Store) FailAndRetry(ctx context.Context, jobId uuid.UUID, workerId, errMsg string, permanent bool) (job.Status, error) {
	var jm jobModel
	err := s.db.NewSelect().
		Model(&jm).
		Where("id = ?", jobId).
		Where("status = ?", job.Running).
		Where("worker_id = ?", workerId).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job.Unknown, gstore.ErrLeaseLost
		}
		return job.Unknown, err
	}

	if !permanent && jm.RetryCount < jm.MaxRetries {
		res, err := s.db.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", job.Pending).
			Set("retry_count = retry_count + 1").
			Set("error_message = ?", errMsg).
			Set("worker_id = ?", "").
			Set("lease_expires_at = NULL").
			Where("id = ?", jobId).
			Where("status = ?", job.Running).
			Where("worker_id = ?", workerId).
			Exec(ctx)
		if err != nil {
			return job.Unknown, err
		}
		if !isAffected(res) {
			return job.Unknown, gstore.ErrLeaseLost
		}
		return job.Pending, nil
	}

	terminal := job.DLQ
	if jm.MaxRetries == 0 && !permanent {
		terminal = job.Failed
	}

	now := time.Now()
	return s.promoteTerminal(ctx, &jm, terminal, errMsg, workerId, now)
}

func (s *Store) promoteTerminal(ctx context.Context, jm *jobModel, terminal job.Status, errMsg, workerId string, now time.Time) (job.Status, error) {
	return terminal, s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", terminal).
			Set("error_message = ?", errMsg).
			Set("completed_at = ?", now).
			Set("worker_id = ?", "").
			Set("lease_expires_at = NULL").
			Where("id = ?", jm.Id).
			Where("status = ?", job.Running).
			Where("worker_id = ?", workerId).
			Exec(ctx)
		if err != nil {
			return err
		}
		if !isAffected(res) {
			return gstore.ErrLeaseLost
		}
		if terminal != job.DLQ {
			return nil
		}
		entry := &dlqModel{
			Id:        uuid.New(),
			JobId:     jm.Id,
			TenantId:  jm.TenantId,
			Payload:   jm.Payload,
			Error:     errMsg,
			CreatedAt: jm.CreatedAt,
			DLQAt:     now,
		}
		_, err = tx.NewInsert().Model(entry).Exec(ctx)
		return err
	})
}

// ReclaimExpiredLeases selects every RUNNING job whose lease has
// expired, transitions each back to PENDING, and returns the full,
// post-transition Job rows so the caller can release their tenants'
// concurrency slots and emit a JOB_RETRY event per reclaimed job. The
// select and update run in one transaction so the returned set exactly
// matches what was reclaimed.
func (s *Store) ReclaimExpiredLeases(ctx context.Context, now time.Time) ([]*job.Job, error) {
	var jms []jobModel
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().
			Model(&jms).
			Where("status = ?", job.Running).
			Where("lease_expires_at < ?", now).
			Scan(ctx); err != nil {
			return err
		}
		if len(jms) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, len(jms))
		for i := range jms {
			ids[i] = jms[i].Id
		}
		_, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("status = ?", job.Pending).
			Set("worker_id = ?", "").
			Set("lease_expires_at = NULL").
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	jobs := make([]*job.Job, len(jms))
	for i := range jms {
		jms[i].Status = job.Pending
		jms[i].WorkerId = ""
		jms[i].LeaseExpiresAt = nil
		jobs[i] = jms[i].toJob()
	}
	return jobs, nil
}

func (s *Store) GetJob(ctx context.Context, tenantId string, jobId uuid.UUID) (*job.Job, error) {
	var jm jobModel
	err := s.db.NewSelect().
		Model(&jm).
		Where("id = ?", jobId).
		Where("tenant_id = ?", tenantId).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gstore.ErrNotFound
		}
		return nil, err
	}
	return jm.toJob(), nil
}

func (s *Store) ListJobs(ctx context.Context, tenantId string, status job.Status, limit, offset int) ([]*job.Job, error) {
	var models []jobModel
	query := s.db.NewSelect().
		Model(&models).
		Where("tenant_id = ?", tenantId).
		Order("created_at DESC")
	if status != job.Unknown {
		query.Where("status = ?", status)
	}
	if limit > 0 {
		query.Limit(limit)
	}
	if offset > 0 {
		query.Offset(offset)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	jobs := make([]*job.Job, len(models))
	for i := range models {
		jobs[i] = models[i].toJob()
	}
	return jobs, nil
}

func (s *Store) DLQList(ctx context.Context, tenantId string, limit, offset int) ([]*job.DLQEntry, error) {
	var models []dlqModel
	query := s.db.NewSelect().
		Model(&models).
		Where("tenant_id = ?", tenantId).
		Order("dlq_at DESC")
	if limit > 0 {
		query.Limit(limit)
	}
	if offset > 0 {
		query.Offset(offset)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]*job.DLQEntry, len(models))
	for i := range models {
		entries[i] = models[i].toDLQEntry()
	}
	return entries, nil
}

func (s *Store) Summarize(ctx context.Context, tenantId string) (*gstore.Summary, error) {
	var rows []struct {
		Status job.Status `bun:"status"`
		Count  int64      `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Where("tenant_id = ?", tenantId).
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	sum := &gstore.Summary{TenantId: tenantId}
	for _, r := range rows {
		switch r.Status {
		case job.Pending:
			sum.Pending = r.Count
		case job.Running:
			sum.Running = r.Count
		case job.Completed:
			sum.Completed = r.Count
		case job.Failed:
			sum.Failed = r.Count
		case job.DLQ:
			sum.DLQ = r.Count
		}
	}
	return sum, nil
}

// RunningCounts computes every tenant's current RUNNING count in one
// GROUP BY query, for seeding admission.Gate's in-memory concurrency
// counter on process startup.
func (s *Store) RunningCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		TenantId string `bun:"tenant_id"`
		Count    int64  `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("tenant_id").
		ColumnExpr("count(*) AS count").
		Where("status = ?", job.Running).
		Group("tenant_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.TenantId] = r.Count
	}
	return counts, nil
}

func (s *Store) RecordMetricsSnapshot(ctx context.Context, computedAt time.Time) error {
	var rows []struct {
		TenantId string     `bun:"tenant_id"`
		Status   job.Status `bun:"status"`
		Count    int64      `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*jobModel)(nil)).
		Column("tenant_id", "status").
		ColumnExpr("count(*) AS count").
		Group("tenant_id", "status").
		Scan(ctx, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	snapshots := make([]*metricsModel, len(rows))
	for i, r := range rows {
		snapshots[i] = &metricsModel{
			TenantId:   r.TenantId,
			Status:     r.Status,
			Count:      r.Count,
			ComputedAt: computedAt,
		}
	}
	_, err = s.db.NewInsert().Model(&snapshots).Exec(ctx)
	return err
}

func (s *Store) PurgeTerminal(ctx context.Context, status job.Status, before *time.Time) (int64, error) {
	if status == job.Pending || status == job.Running {
		return 0, gstore.ErrBadStatus
	}
	query := s.db.NewDelete().Model((*jobModel)(nil))
	if status != job.Unknown {
		query.Where("status = ?", status)
	} else {
		query.Where("status IN (?, ?, ?)", job.Completed, job.Failed, job.DLQ)
	}
	if before != nil {
		query.Where("completed_at <= ?", *before)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return getAffected(res), nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
