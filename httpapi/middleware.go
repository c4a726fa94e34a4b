package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey int

const credentialKey contextKey = iota

// bearerAuth extracts the Authorization: Bearer <token> header into the
// request context. It does not itself resolve a tenant — JobService
// does that on every call — but a missing header is rejected here so a
// malformed request never reaches the service layer.
func bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
			writeError(w, "UNAUTHORIZED", "missing bearer credential", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
		ctx := context.WithValue(r.Context(), credentialKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func credentialFrom(r *http.Request) string {
	token, _ := r.Context().Value(credentialKey).(string)
	return token
}
