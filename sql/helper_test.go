package sql_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	gsql "github.com/brindlehq/jobqueue/sql"
	"github.com/brindlehq/jobqueue/submission"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1) // important for sqlite
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	ctx := context.Background()
	if err := gsql.InitDB(ctx, db); err != nil {
		t.Fatal(err)
	}
	return db
}

func seedTenant(t *testing.T, db *bun.DB, tenantId string, maxConcurrent, ratePerMinute int) {
	t.Helper()
	now := time.Now()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO tenants (tenant_id, api_key, max_concurrent_jobs, rate_limit_per_minute, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		tenantId, uuid.NewString(), maxConcurrent, ratePerMinute, now, now)
	if err != nil {
		t.Fatal(err)
	}
}

func maxRetries(n int) *int {
	return &n
}

func newSubmission(tenantId string) *submission.Submission {
	return &submission.Submission{
		TenantId: tenantId,
		Payload:  []byte(`{"hello":"world"}`),
	}
}
