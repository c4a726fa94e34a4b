// Package sql is a github.com/uptrace/bun-backed implementation of
// store.Store, supporting both SQLite (modernc.org/sqlite) and
// PostgreSQL (jackc/pgx/v5) behind one dialect switch keyed off the
// database URL's scheme.
//
// # Overview
//
// The SQL backend provides:
//
//   - durable persistence of tenants, jobs, and DLQ entries
//   - atomic claim/complete/retry state transitions
//   - lease (visibility timeout) semantics enforced via worker_id +
//     lease_expires_at
//
// # Concurrency Model
//
// ClaimNextPending is the one operation that must behave correctly
// under concurrent workers: it is implemented as a single
// UPDATE ... WHERE id IN (SELECT ... FOR UPDATE SKIP LOCKED)-shaped
// statement with RETURNING, so selection and the state transition happen
// in one atomic round trip rather than a race-prone select-then-update.
// PostgreSQL performs a real SKIP LOCKED locking read; SQLite, which has
// no row-level locking, relies on its own single-writer serialization of
// that subquery instead.
//
// RenewLease, CompleteJob, and FailAndRetry all guard their UPDATE with
// both a status check and a worker_id check, so a worker that has lost
// its lease (reclaimed by the reaper and re-claimed by someone else)
// gets store.ErrLeaseLost instead of silently overwriting another
// worker's progress.
//
// # Schema
//
// InitDB creates the tenants, jobs, dlq, and metrics tables plus the
// (status, created_at) and unique (tenant_id, idempotency_key) indexes
// named in the persisted layout. InitDB is idempotent and runs inside a
// transaction; it performs no destructive migrations. A goose-based
// migration path is provided separately in the migrate package for
// deployments that prefer to own schema evolution externally.
//
// # Database Lifecycle
//
// This package does not manage connection pooling or the database
// process lifecycle. The caller configures *bun.DB (via Open) and runs
// InitDB before first use.
package sql
