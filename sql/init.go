package sql

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createTables(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*tenantModel)(nil),
		(*jobModel)(nil),
		(*dlqModel)(nil),
		(*metricsModel)(nil),
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func createIndices(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_status_created").
		Column("status", "created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_tenant_idempotency").
		Column("tenant_id", "idempotency_key").
		Unique().
		IfNotExists().
		Exec(ctx)
	return err
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createTables(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createIndices(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// InitDB initializes the database schema required by the SQL backend:
// the tenants, jobs, dlq, and metrics tables plus the (status,
// created_at) and unique (tenant_id, idempotency_key) indexes.
//
// InitDB is idempotent and runs inside a single transaction, rolling
// back on any failure. It performs no destructive migrations; schema
// evolution beyond additive IF NOT EXISTS creation is delegated to the
// migrate package.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}

// MustInitDB behaves like InitDB but panics on failure. It is intended
// for application bootstrap code where schema initialization failure is
// unrecoverable.
func MustInitDB(ctx context.Context, db *bun.DB) {
	if err := initDB(ctx, db); err != nil {
		panic(err)
	}
}
