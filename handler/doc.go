// Package handler defines the pluggable business-logic contract a Worker
// invokes for each claimed job, and a small built-in Stub used where
// real handlers aren't configured. The handler itself — what a job
// payload actually means — is always an external collaborator; this
// package only defines the shape the Worker calls through.
package handler
