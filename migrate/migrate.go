package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// Dialect names the two schemas migrate supports. They match the
// scheme switch in sql.Open.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) gooseDialect() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite3"
}

func (d Dialect) baseFS() (embed.FS, string, error) {
	switch d {
	case Postgres:
		return postgresMigrations, "migrations/postgres", nil
	case SQLite, "":
		return sqliteMigrations, "migrations/sqlite", nil
	default:
		return embed.FS{}, "", fmt.Errorf("migrate: unknown dialect %q", d)
	}
}

// DialectFromDSN derives a Dialect from the same DSN scheme sql.Open
// switches on, so callers can share one DSN between the bun pool and
// the migration runner.
func DialectFromDSN(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

func prepare(d Dialect) (string, error) {
	migrationFS, dir, err := d.baseFS()
	if err != nil {
		return "", err
	}
	if err := goose.SetDialect(d.gooseDialect()); err != nil {
		return "", fmt.Errorf("migrate: set dialect: %w", err)
	}
	goose.SetBaseFS(migrationFS)
	return dir, nil
}

// Up applies every pending migration for d against db.
func Up(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

// Down rolls back the most recently applied migration for d.
func Down(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	if err := goose.Down(db, dir); err != nil {
		return fmt.Errorf("migrate: down: %w", err)
	}
	return nil
}

// Status reports the applied/pending state of every known migration
// for d, in version order, to stdout via goose's own reporter.
func Status(db *sql.DB, d Dialect) error {
	dir, err := prepare(d)
	if err != nil {
		return err
	}
	if err := goose.Status(db, dir); err != nil {
		return fmt.Errorf("migrate: status: %w", err)
	}
	return nil
}

// Version reports the current applied migration version for d.
func Version(db *sql.DB, d Dialect) (int64, error) {
	if _, err := prepare(d); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("migrate: version: %w", err)
	}
	return v, nil
}
