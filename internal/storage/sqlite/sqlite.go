// Package sqlite is a single-file storage backend on the pure Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fdg312/diet-hub/internal/dbmigrate"
	"github.com/fdg312/diet-hub/internal/storage"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStorage implements storage.Storage over database/sql.
type SQLiteStorage struct {
	db        *sql.DB
	users     *usersStorage
	foods     *foodsStorage
	profiles  *healthProfilesStorage
	mealPlans *mealPlansStorage
}

// New opens (creating if needed) the database at path and applies migrations.
// ":memory:" gives a private in-process database.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	inMemory := path == ":memory:"
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := dbmigrate.Up(ctx, db, dbmigrate.DriverSQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStorage{
		db:        db,
		users:     &usersStorage{db: db},
		foods:     &foodsStorage{db: db},
		profiles:  &healthProfilesStorage{db: db},
		mealPlans: &mealPlansStorage{db: db},
	}, nil
}

func (s *SQLiteStorage) GetUsersStorage() storage.UsersStorage {
	return s.users
}

func (s *SQLiteStorage) GetFoodsStorage() storage.FoodsStorage {
	return s.foods
}

func (s *SQLiteStorage) GetHealthProfilesStorage() storage.HealthProfilesStorage {
	return s.profiles
}

func (s *SQLiteStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return s.mealPlans
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports a SQLITE_CONSTRAINT_UNIQUE error.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// sqlLimit maps "no limit" (0) to -1, which SQLite treats as unbounded.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}
