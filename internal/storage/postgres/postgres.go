package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage: Postgres реализация storage.Storage
type PostgresStorage struct {
	pool      *pgxpool.Pool
	users     *usersStorage
	foods     *foodsStorage
	profiles  *healthProfilesStorage
	mealPlans *mealPlansStorage
}

// New создаёт PostgresStorage и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{
		pool:      pool,
		users:     newUsersStorage(pool),
		foods:     newFoodsStorage(pool),
		profiles:  newHealthProfilesStorage(pool),
		mealPlans: newMealPlansStorage(pool),
	}, nil
}

func (p *PostgresStorage) GetUsersStorage() storage.UsersStorage {
	return p.users
}

func (p *PostgresStorage) GetFoodsStorage() storage.FoodsStorage {
	return p.foods
}

func (p *PostgresStorage) GetHealthProfilesStorage() storage.HealthProfilesStorage {
	return p.profiles
}

func (p *PostgresStorage) GetMealPlansStorage() storage.MealPlansStorage {
	return p.mealPlans
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// isUniqueViolation reports a 23505 error, optionally for a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
