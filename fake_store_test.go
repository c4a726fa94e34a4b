package jobqueue_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/store"
	"github.com/brindlehq/jobqueue/submission"
	"github.com/brindlehq/jobqueue/tenant"
)

// fakeStore is a minimal in-memory store.Store used to exercise Worker
// and WorkerPool without a real database. It is not a model for a
// production Store: it takes no care to be efficient, only correct
// enough for the state transitions under test.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*job.Job
	dlq  []*job.DLQEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[uuid.UUID]*job.Job)}
}

func (s *fakeStore) GetTenant(ctx context.Context, tenantId string) (*tenant.Tenant, error) {
	return &tenant.Tenant{TenantId: tenantId, MaxConcurrentJobs: 100, RateLimitPerMinute: 6000}, nil
}

func (s *fakeStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*tenant.Tenant, error) {
	return &tenant.Tenant{TenantId: apiKey, APIKey: apiKey, MaxConcurrentJobs: 100, RateLimitPerMinute: 6000}, nil
}

func (s *fakeStore) CreateJob(ctx context.Context, sub *submission.Submission) (*job.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.IdempotencyKey != "" {
		for _, j := range s.jobs {
			if j.TenantId == sub.TenantId && j.IdempotencyKey == sub.IdempotencyKey {
				return j, false, nil
			}
		}
	}
	j := &job.Job{
		Id:             uuid.New(),
		TenantId:       sub.TenantId,
		Status:         job.Pending,
		Payload:        sub.Payload,
		IdempotencyKey: sub.IdempotencyKey,
		MaxRetries:     sub.Retries(),
		CreatedAt:      time.Now(),
	}
	s.jobs[j.Id] = j
	return j, true, nil
}

func (s *fakeStore) ClaimNextPending(ctx context.Context, workerId string, lease time.Duration) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *job.Job
	for _, j := range s.jobs {
		if j.Status != job.Pending {
			continue
		}
		if best == nil || j.CreatedAt.Before(best.CreatedAt) {
			best = j
		}
	}
	if best == nil {
		return nil, nil
	}
	now := time.Now()
	expires := now.Add(lease)
	best.Status = job.Running
	best.WorkerId = workerId
	best.StartedAt = &now
	best.LeaseExpiresAt = &expires
	cp := *best
	return &cp, nil
}

func (s *fakeStore) owned(jobId uuid.UUID, workerId string) (*job.Job, error) {
	j, ok := s.jobs[jobId]
	if !ok || j.Status != job.Running || j.WorkerId != workerId {
		return nil, store.ErrLeaseLost
	}
	return j, nil
}

func (s *fakeStore) RenewLease(ctx context.Context, jobId uuid.UUID, workerId string, lease time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, err := s.owned(jobId, workerId)
	if err != nil {
		return err
	}
	expires := time.Now().Add(lease)
	j.LeaseExpiresAt = &expires
	return nil
}

func (s *fakeStore) CompleteJob(ctx context.Context, jobId uuid.UUID, workerId string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, err := s.owned(jobId, workerId)
	if err != nil {
		return err
	}
	now := time.Now()
	j.Status = job.Completed
	j.Result = result
	j.CompletedAt = &now
	j.WorkerId = ""
	j.LeaseExpiresAt = nil
	return nil
}

func (s *fakeStore) FailAndRetry(ctx context.Context, jobId uuid.UUID, workerId string, errMsg string, permanent bool) (job.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, err := s.owned(jobId, workerId)
	if err != nil {
		return job.Unknown, err
	}
	j.ErrorMessage = errMsg
	if !permanent && j.RetryCount < j.MaxRetries {
		j.RetryCount++
		j.Status = job.Pending
		j.WorkerId = ""
		j.LeaseExpiresAt = nil
		return job.Pending, nil
	}
	now := time.Now()
	j.WorkerId = ""
	j.LeaseExpiresAt = nil
	j.CompletedAt = &now
	if j.MaxRetries == 0 && !permanent {
		j.Status = job.Failed
		return job.Failed, nil
	}
	j.Status = job.DLQ
	s.dlq = append(s.dlq, &job.DLQEntry{
		Id:        uuid.New(),
		JobId:     j.Id,
		TenantId:  j.TenantId,
		Payload:   j.Payload,
		Error:     errMsg,
		CreatedAt: j.CreatedAt,
		DLQAt:     now,
	})
	return job.DLQ, nil
}

func (s *fakeStore) ReclaimExpiredLeases(ctx context.Context, now time.Time) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reclaimed []*job.Job
	for _, j := range s.jobs {
		if j.Status == job.Running && j.LeaseExpiresAt != nil && j.LeaseExpiresAt.Before(now) {
			j.Status = job.Pending
			j.WorkerId = ""
			j.LeaseExpiresAt = nil
			cp := *j
			reclaimed = append(reclaimed, &cp)
		}
	}
	return reclaimed, nil
}

func (s *fakeStore) GetJob(ctx context.Context, tenantId string, jobId uuid.UUID) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobId]
	if !ok || j.TenantId != tenantId {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *fakeStore) ListJobs(ctx context.Context, tenantId string, status job.Status, limit, offset int) ([]*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*job.Job
	for _, j := range s.jobs {
		if j.TenantId != tenantId {
			continue
		}
		if status != job.Unknown && j.Status != status {
			continue
		}
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) DLQList(ctx context.Context, tenantId string, limit, offset int) ([]*job.DLQEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*job.DLQEntry
	for _, e := range s.dlq {
		if e.TenantId == tenantId {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) Summarize(ctx context.Context, tenantId string) (*store.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := &store.Summary{TenantId: tenantId}
	for _, j := range s.jobs {
		if j.TenantId != tenantId {
			continue
		}
		switch j.Status {
		case job.Pending:
			sum.Pending++
		case job.Running:
			sum.Running++
		case job.Completed:
			sum.Completed++
		case job.Failed:
			sum.Failed++
		case job.DLQ:
			sum.DLQ++
		}
	}
	return sum, nil
}

func (s *fakeStore) RunningCounts(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, j := range s.jobs {
		if j.Status == job.Running {
			counts[j.TenantId]++
		}
	}
	return counts, nil
}

func (s *fakeStore) RecordMetricsSnapshot(ctx context.Context, computedAt time.Time) error {
	return nil
}

func (s *fakeStore) PurgeTerminal(ctx context.Context, status job.Status, before *time.Time) (int64, error) {
	if status == job.Pending || status == job.Running {
		return 0, store.ErrBadStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, j := range s.jobs {
		if !j.Terminal() {
			continue
		}
		if status != job.Unknown && j.Status != status {
			continue
		}
		if before != nil && (j.CompletedAt == nil || j.CompletedAt.After(*before)) {
			continue
		}
		delete(s.jobs, id)
		n++
	}
	return n, nil
}
