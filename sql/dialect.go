package sql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Open opens a *bun.DB for dsn, choosing the SQLite or PostgreSQL
// dialect from its scheme:
//
//	sqlite://... or file:...      -> modernc.org/sqlite + sqlitedialect
//	postgres://... or postgresql:// -> jackc/pgx/v5/stdlib + pgdialect
//
// For SQLite, the connection pool is capped at one open connection:
// SQLite serializes writers internally, and multiple *database/sql*
// connections against the same file defeat that serialization and
// produce spurious "database is locked" errors under the write load
// ClaimNextPending generates.
func Open(dsn string) (*bun.DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		dsn = strings.TrimPrefix(dsn, "sqlite://")
		fallthrough
	default:
		sqlDB, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	}
}
