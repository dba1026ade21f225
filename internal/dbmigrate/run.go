package dbmigrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

type dialect struct {
	sqlDriver string
	goose     string
	dir       string
}

var dialects = map[string]dialect{
	DriverPostgres: {sqlDriver: "pgx", goose: "postgres", dir: "migrations/postgres"},
	DriverSQLite:   {sqlDriver: "sqlite", goose: "sqlite3", dir: "migrations/sqlite"},
}

// Run opens the target database and executes a goose command (up, status, down).
func Run(command string, target Target) error {
	if target.DSN == "" {
		return fmt.Errorf("database URL is empty")
	}
	d, ok := dialects[target.Driver]
	if !ok {
		return fmt.Errorf("unsupported migration driver %q", target.Driver)
	}

	db, err := sql.Open(d.sqlDriver, target.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return RunDB(context.Background(), command, db, target.Driver)
}

// RunDB executes a goose command over an already open connection.
func RunDB(ctx context.Context, command string, db *sql.DB, driver string) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("unsupported migration driver %q", driver)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, d.dir); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	return RunDB(ctx, "up", db, driver)
}
