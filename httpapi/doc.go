// Package httpapi is a thin, non-binding reference HTTP transport in
// front of service.JobService. spec.md names "HTTP transport framing
// [and] request/response schema serialization" as out-of-scope external
// collaborators; this package exists to prove JobService is callable
// over HTTP, not to fix the wire format for downstream consumers.
package httpapi
