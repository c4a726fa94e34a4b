package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/service"
	gsql "github.com/brindlehq/jobqueue/sql"
	"github.com/brindlehq/jobqueue/submission"

	_ "modernc.org/sqlite"
)

func newTestService(t *testing.T) (*service.JobService, *bun.DB) {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	if err := gsql.InitDB(context.Background(), db); err != nil {
		t.Fatal(err)
	}

	s := gsql.NewStore(db)
	gate := admission.NewGate()
	bus := eventbus.New()
	return service.New(s, gate, bus, submission.DefaultMaxRetries), db
}

func seedServiceTenant(t *testing.T, db *bun.DB, tenantId, apiKey string, maxConcurrent, ratePerMinute int) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO tenants (tenant_id, api_key, max_concurrent_jobs, rate_limit_per_minute, created_at, updated_at) VALUES (?, ?, ?, ?, datetime('now'), datetime('now'))",
		tenantId, apiKey, maxConcurrent, ratePerMinute)
	if err != nil {
		t.Fatal(err)
	}
}

func TestSubmitUnauthorizedCredential(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Submit(context.Background(), "no-such-key", &submission.Submission{Payload: []byte(`{}`)})
	if err != service.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmitPublishesEventOnFreshInsert(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 10, 1000)

	sub := eventbusSubscribe(t, svc)
	defer sub.Close()

	j, err := svc.Submit(context.Background(), "secret-key", &submission.Submission{Payload: []byte(`{"x":1}`)})
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != job.Pending {
		t.Fatalf("expected Pending, got %v", j.Status)
	}

	select {
	case ev := <-sub.Events():
		if ev.Type != eventbus.JobSubmitted {
			t.Fatalf("expected JOB_SUBMITTED, got %v", ev.Type)
		}
		if ev.JobId != j.Id {
			t.Fatalf("expected event for job %v, got %v", j.Id, ev.JobId)
		}
	default:
		t.Fatal("expected a JOB_SUBMITTED event to be published")
	}
}

func TestSubmitIdempotencyHitReturnsExistingWithoutEvent(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 10, 1000)

	sub := &submission.Submission{Payload: []byte(`{}`), IdempotencyKey: "order-1"}
	first, err := svc.Submit(context.Background(), "secret-key", sub)
	if err != nil {
		t.Fatal(err)
	}

	subscription := eventbusSubscribe(t, svc)
	defer subscription.Close()

	second, err := svc.Submit(context.Background(), "secret-key", sub)
	if err != nil {
		t.Fatal(err)
	}
	if second.Id != first.Id {
		t.Fatalf("expected same job id on idempotency hit, got %v != %v", second.Id, first.Id)
	}

	select {
	case ev := <-subscription.Events():
		t.Fatalf("expected no event on an idempotency hit, got %v", ev)
	default:
	}
}

func TestSubmitRateLimited(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 10, 1)

	ctx := context.Background()
	if _, err := svc.Submit(ctx, "secret-key", &submission.Submission{Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, "secret-key", &submission.Submission{Payload: []byte(`{}`)}); err != service.ErrRateLimited {
		t.Fatalf("expected ErrRateLimited on the second submission, got %v", err)
	}
}

func TestSubmitConcurrencyExceeded(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 1, 1000)

	ctx := context.Background()
	if _, err := svc.Submit(ctx, "secret-key", &submission.Submission{Payload: []byte(`{}`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, "secret-key", &submission.Submission{Payload: []byte(`{}`)}); err != service.ErrConcurrencyExceeded {
		t.Fatalf("expected ErrConcurrencyExceeded on the second submission, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 10, 0)

	_, err := svc.Get(context.Background(), "secret-key", randomJobId())
	if err != service.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMetricsReflectsSubmittedJobs(t *testing.T) {
	svc, db := newTestService(t)
	seedServiceTenant(t, db, "acme", "secret-key", 10, 1000)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, "secret-key", &submission.Submission{Payload: []byte(`{}`)}); err != nil {
			t.Fatal(err)
		}
	}

	m, err := svc.Metrics(ctx, "secret-key")
	if err != nil {
		t.Fatal(err)
	}
	if m.Pending != 3 {
		t.Fatalf("expected 3 pending, got %d", m.Pending)
	}
	if m.Total != 3 {
		t.Fatalf("expected total 3, got %d", m.Total)
	}
}

func randomJobId() uuid.UUID {
	return uuid.New()
}

func eventbusSubscribe(t *testing.T, svc *service.JobService) *eventbus.Subscription {
	t.Helper()
	sub, err := svc.Events(context.Background(), "secret-key")
	if err != nil {
		t.Fatal(err)
	}
	return sub
}
