package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/brindlehq/jobqueue/admission"
	"github.com/brindlehq/jobqueue/eventbus"
	"github.com/brindlehq/jobqueue/httpapi"
	"github.com/brindlehq/jobqueue/service"
	gsql "github.com/brindlehq/jobqueue/sql"
	"github.com/brindlehq/jobqueue/submission"

	_ "modernc.org/sqlite"
)

func newTestRouter(t *testing.T) (http.Handler, *bun.DB) {
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

	svc := service.New(gsql.NewStore(db), admission.NewGate(), eventbus.New(), submission.DefaultMaxRetries)
	router := httpapi.NewRouter(httpapi.NewServer(svc), nil)
	return router, db
}

func seedHandlerTenant(t *testing.T, db *bun.DB, tenantId, apiKey string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO tenants (tenant_id, api_key, max_concurrent_jobs, rate_limit_per_minute, created_at, updated_at) VALUES (?, ?, 10, 1000, datetime('now'), datetime('now'))",
		tenantId, apiKey)
	if err != nil {
		t.Fatal(err)
	}
}

func TestHealthRequiresNoAuth(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSubmitWithoutBearerIsUnauthorized(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest("POST", "/v1/jobs", bytes.NewBufferString(`{"payload":{}}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSubmitAndGetRoundTrip(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlerTenant(t, db, "acme", "secret-key")

	body, _ := json.Marshal(map[string]any{"payload": map[string]any{"x": 1}})
	req := httptest.NewRequest("POST", "/v1/jobs", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Id string `json:"Id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Id == "" {
		t.Fatal("expected a job id in the response")
	}

	getReq := httptest.NewRequest("GET", "/v1/jobs/"+created.Id, nil)
	getReq.Header.Set("Authorization", "Bearer secret-key")
	getW := httptest.NewRecorder()
	router.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", getW.Code, getW.Body.String())
	}
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	router, db := newTestRouter(t)
	seedHandlerTenant(t, db, "acme", "secret-key")

	req := httptest.NewRequest("GET", "/v1/jobs/00000000-0000-0000-0000-000000000000", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
