package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/store"
	"github.com/brindlehq/jobqueue/submission"
	"github.com/brindlehq/jobqueue/tenant"
)

// Page is a tenant-scoped, offset-paginated result set.
type Page[T any] struct {
	Items  []T
	Limit  int
	Offset int
}

// Metrics is the aggregate counts JobService.Metrics returns for a tenant.
type Metrics struct {
	Total     int64
	Pending   int64
	Running   int64
	Completed int64
	Failed    int64
	DLQ       int64
}

// JobService is the tenant-facing submission and read API: the
// orchestration layer between an (out-of-scope) transport surface and
// the Store/Gate/Bus primitives.
type JobService struct {
	store             store.Store
	admission         *admission.Gate
	bus               *eventbus.Bus
	defaultMaxRetries int
}

// New creates a JobService wired to the given Store, admission Gate,
// and EventBus. defaultMaxRetries is applied to any Submission whose
// MaxRetries is nil, overriding submission.DefaultMaxRetries; pass
// submission.DefaultMaxRetries itself to keep the package default.
func New(s store.Store, gate *admission.Gate, bus *eventbus.Bus, defaultMaxRetries int) *JobService {
	return &JobService{store: s, admission: gate, bus: bus, defaultMaxRetries: defaultMaxRetries}
}

// Submit resolves credential to a tenant, checks admission, and creates
// a job from sub. An idempotency hit on sub.IdempotencyKey returns the
// existing Job with no JOB_SUBMITTED event and without keeping a
// concurrency slot, since resubmission is not a new unit of work; the
// rate-limit token consumed by the admission check is not refunded.
// A negative sub.MaxRetries is rejected with ErrValidation.
func (s *JobService) Submit(ctx context.Context, credential string, sub *submission.Submission) (*job.Job, error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	sub.TenantId = t.TenantId
	if sub.MaxRetries != nil && *sub.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max_retries must not be negative", ErrValidation)
	}
	if sub.MaxRetries == nil {
		def := s.defaultMaxRetries
		sub.MaxRetries = &def
	}

	limits := admission.Limits{
		MaxConcurrentJobs:  t.MaxConcurrentJobs,
		RateLimitPerMinute: t.RateLimitPerMinute,
	}

	// CreateJob resolves an idempotency hit by returning the existing
	// row with created=false. A hit is only knowable after the store
	// round trip, so Reserve runs first and its concurrency slot is
	// given back with Release if the insert turns out to be a hit; the
	// rate-limit token Reserve consumed stays spent.
	if err := s.admission.Reserve(t.TenantId, limits); err != nil {
		return nil, mapAdmissionErr(err)
	}

	j, created, err := s.store.CreateJob(ctx, sub)
	if err != nil {
		s.admission.Release(t.TenantId)
		return nil, fmt.Errorf("create job: %w", err)
	}
	if !created {
		s.admission.Release(t.TenantId)
		return j, nil
	}

	s.bus.Publish(eventbus.Event{
		Type:      eventbus.JobSubmitted,
		JobId:     j.Id,
		TenantId:  j.TenantId,
		TraceId:   j.TraceId,
		Timestamp: j.CreatedAt,
	})
	return j, nil
}

// Get returns the job identified by jobId, scoped to the tenant
// resolved from credential.
func (s *JobService) Get(ctx context.Context, credential string, jobId uuid.UUID) (*job.Job, error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	j, err := s.store.GetJob(ctx, t.TenantId, jobId)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

// List returns a page of jobs for the tenant resolved from credential,
// optionally filtered by status.
func (s *JobService) List(ctx context.Context, credential string, status job.Status, limit, offset int) (*Page[*job.Job], error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, t.TenantId, status, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[*job.Job]{Items: jobs, Limit: limit, Offset: offset}, nil
}

// DLQList returns a page of dead-lettered entries for the tenant
// resolved from credential.
func (s *JobService) DLQList(ctx context.Context, credential string, limit, offset int) (*Page[*job.DLQEntry], error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.DLQList(ctx, t.TenantId, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page[*job.DLQEntry]{Items: entries, Limit: limit, Offset: offset}, nil
}

// Metrics returns the current per-status counts for the tenant resolved
// from credential.
func (s *JobService) Metrics(ctx context.Context, credential string) (*Metrics, error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	sum, err := s.store.Summarize(ctx, t.TenantId)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		Total:     sum.Total(),
		Pending:   sum.Pending,
		Running:   sum.Running,
		Completed: sum.Completed,
		Failed:    sum.Failed,
		DLQ:       sum.DLQ,
	}, nil
}

// Events subscribes to the lifecycle event stream, scoped to the tenant
// resolved from credential. Callers must Close the returned
// Subscription when done.
func (s *JobService) Events(ctx context.Context, credential string) (*eventbus.Subscription, error) {
	t, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	return s.bus.Subscribe(func(ev eventbus.Event) bool {
		return ev.TenantId == t.TenantId
	}), nil
}

func (s *JobService) authenticate(ctx context.Context, credential string) (*tenant.Tenant, error) {
	t, err := s.store.GetTenantByAPIKey(ctx, credential)
	if err != nil {
		if errors.Is(err, store.ErrTenantNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return t, nil
}

func mapAdmissionErr(err error) error {
	switch {
	case errors.Is(err, admission.ErrRateLimited):
		return ErrRateLimited
	case errors.Is(err, admission.ErrConcurrencyExceeded):
		return ErrConcurrencyExceeded
	default:
		return err
	}
}
