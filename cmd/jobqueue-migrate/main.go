// Command jobqueue-migrate applies or inspects the goose-tracked schema
// migrations in the migrate package, as an alternative to the
// in-process sql.InitDB used by jobqueue-server and jobqueue-worker for
// test and single-binary bootstrap.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brindlehq/jobqueue/config"
	"github.com/brindlehq/jobqueue/migrate"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:   "jobqueue-migrate",
		Short: "Applies and inspects goose-tracked schema migrations",
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE:  runUp,
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recently applied migration",
			RunE:  runDown,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied/pending migration status",
			RunE:  runStatus,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE:  runVersion,
		},
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openFromEnv() (*sql.DB, migrate.Dialect, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	dialect := migrate.DialectFromDSN(cfg.DatabaseURL)
	driver := "sqlite"
	dsn := cfg.DatabaseURL
	if dialect == migrate.Postgres {
		driver = "pgx"
	} else {
		dsn = trimSQLiteScheme(dsn)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", err
	}
	return db, dialect, nil
}

func trimSQLiteScheme(dsn string) string {
	const prefix = "sqlite://"
	if len(dsn) >= len(prefix) && dsn[:len(prefix)] == prefix {
		return dsn[len(prefix):]
	}
	return dsn
}

func runUp(cmd *cobra.Command, args []string) error {
	db, dialect, err := openFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	return migrate.Up(db, dialect)
}

func runDown(cmd *cobra.Command, args []string) error {
	db, dialect, err := openFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	return migrate.Down(db, dialect)
}

func runStatus(cmd *cobra.Command, args []string) error {
	db, dialect, err := openFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	return migrate.Status(db, dialect)
}

func runVersion(cmd *cobra.Command, args []string) error {
	db, dialect, err := openFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	v, err := migrate.Version(db, dialect)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}
