package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type usersStorage struct {
	db *sql.DB
}

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

func scanUser(row rowScanner) (*storage.User, error) {
	var u storage.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *usersStorage) CreateUser(ctx context.Context, user *storage.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.Name, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *usersStorage) GetUser(ctx context.Context, id string) (*storage.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "get user")
	}
	return u, nil
}

func (s *usersStorage) GetUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if err != nil {
		return nil, notFoundOr(err, "get user by email")
	}
	return u, nil
}

func (s *usersStorage) ListUsers(ctx context.Context, query string, limit, offset int) ([]storage.User, int, error) {
	var args []any
	whereClause := ""
	if query != "" {
		whereClause = "WHERE instr(email, ?) > 0"
		args = append(args, strings.ToLower(query))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users `+whereClause+` ORDER BY email ASC LIMIT ? OFFSET ?`,
		append(args, sqlLimit(limit), offset)...)
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
	return users, total, rows.Err()
}

func (s *usersStorage) UpdateUserRole(ctx context.Context, id string, role string) (*storage.User, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *usersStorage) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	for _, q := range []string{
		`DELETE FROM meal_plan_entries WHERE plan_id IN (SELECT id FROM meal_plans WHERE owner_user_id = ?)`,
		`DELETE FROM meal_plans WHERE owner_user_id = ?`,
		`DELETE FROM health_profiles WHERE owner_user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}

	return tx.Commit()
}

func (s *usersStorage) CountUsers(ctx context.Context) (int, int, error) {
	var total, admins int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN role = 'admin' THEN 1 ELSE 0 END), 0) FROM users
	`).Scan(&total, &admins)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, admins, nil
}
