package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brindlehq/jobqueue/service"
)

// ErrorResponse is the standard error envelope every non-2xx response
// uses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the taxonomy code named in spec.md §6:
// UNAUTHORIZED, FORBIDDEN, NOT_FOUND, RATE_LIMITED, CONCURRENCY_EXCEEDED,
// VALIDATION_ERROR, INTERNAL_ERROR.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func writeOK(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// fromServiceErr maps a service package error to the response taxonomy.
// Anything unrecognized is logged server-side and reported as
// INTERNAL_ERROR to the caller.
func fromServiceErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, "UNAUTHORIZED", "invalid or missing credential", http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, "FORBIDDEN", "not permitted", http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, "NOT_FOUND", "resource not found", http.StatusNotFound)
	case errors.Is(err, service.ErrRateLimited):
		writeError(w, "RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests)
	case errors.Is(err, service.ErrConcurrencyExceeded):
		writeError(w, "CONCURRENCY_EXCEEDED", "concurrency limit exceeded", http.StatusTooManyRequests)
	case errors.Is(err, service.ErrValidation):
		writeError(w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
	default:
		slog.ErrorContext(r.Context(), "internal error", "err", err)
		writeError(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
	}
}
