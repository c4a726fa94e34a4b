package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/brindlehq/jobqueue/job"
	"github.com/brindlehq/jobqueue/service"
	"github.com/brindlehq/jobqueue/submission"
)

// Server adapts service.JobService onto HTTP handlers. It is a thin
// reference binding only: request/response schema here is not a
// contract the core enforces.
type Server struct {
	svc *service.JobService
}

// NewServer creates a Server backed by svc.
func NewServer(svc *service.JobService) *Server {
	return &Server{svc: svc}
}

type submitRequest struct {
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	MaxRetries     *int            `json:"max_retries,omitempty"`
}

// Submit handles POST /v1/jobs.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "VALIDATION_ERROR", "invalid JSON body", http.StatusBadRequest)
		return
	}

	j, err := s.svc.Submit(r.Context(), credentialFrom(r), &submission.Submission{
		Payload:        req.Payload,
		IdempotencyKey: req.IdempotencyKey,
		MaxRetries:     req.MaxRetries,
	})
	if err != nil {
		fromServiceErr(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, j)
}

// Get handles GET /v1/jobs/{id}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	jobId, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "VALIDATION_ERROR", "invalid job id", http.StatusBadRequest)
		return
	}
	j, err := s.svc.Get(r.Context(), credentialFrom(r), jobId)
	if err != nil {
		fromServiceErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, j)
}

// List handles GET /v1/jobs.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	status := parseStatus(r.URL.Query().Get("status"))
	limit, offset := parsePage(r)

	page, err := s.svc.List(r.Context(), credentialFrom(r), status, limit, offset)
	if err != nil {
		fromServiceErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, page)
}

// DLQList handles GET /v1/dlq.
func (s *Server) DLQList(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePage(r)

	page, err := s.svc.DLQList(r.Context(), credentialFrom(r), limit, offset)
	if err != nil {
		fromServiceErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, page)
}

// Metrics handles GET /v1/metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Metrics(r.Context(), credentialFrom(r))
	if err != nil {
		fromServiceErr(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, m)
}

// Health handles GET /health. It requires no credential.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func parseStatus(raw string) job.Status {
	if raw == "" {
		return job.Unknown
	}
	status, err := job.ParseStatus(raw)
	if err != nil {
		return job.Unknown
	}
	return status
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

func parsePage(r *http.Request) (limit, offset int) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
