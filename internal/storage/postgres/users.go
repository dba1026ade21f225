package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type usersStorage struct {
	pool *pgxpool.Pool
}

func newUsersStorage(pool *pgxpool.Pool) *usersStorage {
	return &usersStorage{pool: pool}
}

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*storage.User, error) {
	var u storage.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err, "users_email_unique_idx") {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id string) (*storage.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get user")
	}
	return u, nil
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, notFoundOr(err, "get user by email")
	}
	return u, nil
}

func (s *usersStorage) ListUsers(ctx context.Context, query string, limit, offset int) ([]storage.User, int, error) {
	var args []interface{}
	whereClause := ""
	if query != "" {
		whereClause = "WHERE email LIKE $1"
		args = append(args, "%"+strings.ToLower(query)+"%")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM users
		%s
		ORDER BY email ASC
		LIMIT $%d OFFSET $%d
	`, userColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, pgLimit(limit), offset)

	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []storage.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", rows.Err())
	}

	return users, total, nil
}

func (s *usersStorage) UpdateUserRole(ctx context.Context, id string, role string) (*storage.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(s.pool.QueryRow(ctx, query, id, role))
	if err != nil {
		return nil, notFoundOr(err, "update user role")
	}
	return u, nil
}

func (s *usersStorage) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	// meal_plan_entries go with the plan (ON DELETE CASCADE)
	if _, err := tx.Exec(ctx, `DELETE FROM meal_plans WHERE owner_user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM health_profiles WHERE owner_user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete health profile: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *usersStorage) CountUsers(ctx context.Context) (int, int, error) {
	var total, admins int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE role = 'admin') FROM users
	`).Scan(&total, &admins)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, admins, nil
}

// pgLimit maps "no limit" (0) to NULL, which Postgres treats as LIMIT ALL.
func pgLimit(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}
