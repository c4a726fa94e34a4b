package httpapi

import (
	"github.com/gorilla/mux"

	"github.com/brindlehq/jobqueue/gateway"
)

// NewRouter wires s's handlers and gw's WebSocket endpoint behind
// bearer-token auth. /health is unauthenticated.
func NewRouter(s *Server, gw *gateway.Gateway) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.Health).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(bearerAuth)
	api.HandleFunc("/jobs", s.Submit).Methods("POST")
	api.HandleFunc("/jobs", s.List).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.Get).Methods("GET")
	api.HandleFunc("/dlq", s.DLQList).Methods("GET")
	api.HandleFunc("/metrics", s.Metrics).Methods("GET")
	if gw != nil {
		api.HandleFunc("/events", gw.ServeHTTP).Methods("GET")
	}
	return r
}
