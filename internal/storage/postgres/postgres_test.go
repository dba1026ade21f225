package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/fdg312/diet-hub/internal/dbmigrate"
	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/fdg312/diet-hub/internal/storage/storagetest"
)

// Runs only when TEST_DATABASE_URL points at a disposable database.
func TestPostgresStorage(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	target := dbmigrate.Target{Driver: dbmigrate.DriverPostgres, DSN: dbURL}
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		// reset schema between subtests
		_ = dbmigrate.Run("reset", target)
		if err := dbmigrate.Run("up", target); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		s, err := New(context.Background(), dbURL)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}
