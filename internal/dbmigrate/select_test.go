package dbmigrate

import (
	"testing"

	"github.com/fdg312/diet-hub/internal/config"
)

func TestSelectDatabaseURL_Priority(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLDirect: "postgres://direct",
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://direct" || source != "DATABASE_URL_DIRECT" {
		t.Fatalf("expected direct URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
}

func TestSelectDatabaseURL_FallbackToDatabaseURL(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://url" || source != "DATABASE_URL" {
		t.Fatalf("expected DATABASE_URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
}

func TestSelectDatabaseURL_PooledWarning(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLPooled: "postgres://pooled",
	}

	dbURL, source, warning, err := SelectDatabaseURL(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dbURL != "postgres://pooled" || source != "DATABASE_URL_POOLED" {
		t.Fatalf("expected pooled URL, got dbURL=%q source=%q", dbURL, source)
	}
	if warning == "" {
		t.Fatal("expected warning for pooled DDL usage")
	}
}

func TestSelectDatabaseURL_RequireDirect(t *testing.T) {
	cfg := &config.Config{
		DatabaseURLRaw:    "postgres://url",
		DatabaseURLPooled: "postgres://pooled",
	}

	_, _, _, err := SelectDatabaseURL(cfg, true)
	if err == nil {
		t.Fatal("expected error when direct is required but missing")
	}
}

func TestSelectTarget_SQLite(t *testing.T) {
	cfg := &config.Config{
		StorageDriver: config.StorageSQLite,
		SQLitePath:    "data/test.db",
		DatabaseURL:   "postgres://ignored",
	}

	target, warning, err := SelectTarget(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Driver != DriverSQLite || target.DSN != "data/test.db" {
		t.Fatalf("expected sqlite target, got %+v", target)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %q", warning)
	}
}

func TestSelectTarget_PostgresForAuto(t *testing.T) {
	cfg := &config.Config{
		StorageDriver:  config.StorageAuto,
		DatabaseURLRaw: "postgres://url",
	}

	target, _, err := SelectTarget(cfg, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Driver != DriverPostgres || target.Source != "DATABASE_URL" {
		t.Fatalf("expected postgres target from DATABASE_URL, got %+v", target)
	}
}

func TestSelectTarget_MemoryHasNothingToMigrate(t *testing.T) {
	_, _, err := SelectTarget(&config.Config{StorageDriver: config.StorageMemory}, false)
	if err == nil {
		t.Fatal("expected error for memory storage")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	for _, d := range dialects {
		entries, err := migrationsFS.ReadDir(d.dir)
		if err != nil {
			t.Fatalf("read %s: %v", d.dir, err)
		}
		if len(entries) == 0 {
			t.Fatalf("no migrations embedded in %s", d.dir)
		}
	}
}
