package dbmigrate

import (
	"fmt"

	"github.com/fdg312/diet-hub/internal/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Target is a database the migrations can run against.
type Target struct {
	Driver string
	DSN    string
	Source string // env var the DSN came from
}

// SelectDatabaseURL selects DB URL for migrations.
// Priority for migration command: DIRECT > DATABASE_URL > POOLED (with warning).
// If requireDirect is true, only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (dbURL string, source string, warning string, err error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return "", "", "", fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	}

	if cfg.DatabaseURLDirect != "" {
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	}
	if cfg.DatabaseURLRaw != "" {
		return cfg.DatabaseURLRaw, "DATABASE_URL", "", nil
	}
	if cfg.DatabaseURLPooled != "" {
		return cfg.DatabaseURLPooled, "DATABASE_URL_POOLED", "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT", nil
	}

	return "", "", "", fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}

// SelectTarget picks the database migrations should run against.
// STORAGE_DRIVER=sqlite targets SQLITE_PATH; memory has nothing to migrate;
// everything else resolves a Postgres URL.
func SelectTarget(cfg *config.Config, requireDirect bool) (Target, string, error) {
	switch cfg.StorageDriver {
	case config.StorageSQLite:
		if cfg.SQLitePath == "" {
			return Target{}, "", fmt.Errorf("SQLITE_PATH is empty")
		}
		return Target{Driver: DriverSQLite, DSN: cfg.SQLitePath, Source: "SQLITE_PATH"}, "", nil
	case config.StorageMemory:
		return Target{}, "", fmt.Errorf("STORAGE_DRIVER=memory has no schema to migrate")
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, requireDirect)
	if err != nil {
		return Target{}, "", err
	}
	return Target{Driver: DriverPostgres, DSN: dbURL, Source: source}, warning, nil
}
