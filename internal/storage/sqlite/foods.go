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

type foodsStorage struct {
	db *sql.DB
}

const foodColumns = `id, name, search_key, calories, category, image_key, image_content_type, created_at, updated_at`

func scanFood(row rowScanner) (*storage.Food, error) {
	var f storage.Food
	var imageKey, imageType sql.NullString
	err := row.Scan(&f.ID, &f.Name, &f.SearchKey, &f.Calories, &f.Category, &imageKey, &imageType, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if imageKey.Valid {
		f.ImageKey = &imageKey.String
	}
	if imageType.Valid {
		f.ImageContentType = &imageType.String
	}
	return &f, nil
}

func (s *foodsStorage) ListFoods(ctx context.Context, filter storage.FoodFilter) ([]storage.Food, int, error) {
	var conds []string
	var args []any
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Query != "" {
		// instr avoids LIKE wildcards in user input
		conds = append(conds, "instr(search_key, ?) > 0")
		args = append(args, filter.Query)
	}
	if filter.MinKcal != nil {
		conds = append(conds, "calories >= ?")
		args = append(args, *filter.MinKcal)
	}
	if filter.MaxKcal != nil {
		conds = append(conds, "calories <= ?")
		args = append(args, *filter.MaxKcal)
	}

	whereClause := ""
	if len(conds) > 0 {
		whereClause = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM foods "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count foods: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+foodColumns+` FROM foods `+whereClause+` ORDER BY search_key ASC, id ASC LIMIT ? OFFSET ?`,
		append(args, sqlLimit(filter.Limit), filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list foods: %w", err)
	}
	defer rows.Close()

	foods := []storage.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, *f)
	}
	return foods, total, rows.Err()
}

func (s *foodsStorage) GetFood(ctx context.Context, id string) (*storage.Food, error) {
	f, err := scanFood(s.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "get food")
	}
	return f, nil
}

func (s *foodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	if food.ID == "" {
		food.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	food.CreatedAt = now
	food.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foods (id, name, search_key, calories, category, image_key, image_content_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, food.ID, food.Name, food.SearchKey, food.Calories, food.Category, food.ImageKey, food.ImageContentType, food.CreatedAt, food.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create food: %w", err)
	}
	return nil
}

func (s *foodsStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE foods SET name = ?, search_key = ?, calories = ?, category = ?, updated_at = ?
		WHERE id = ?
	`, food.Name, food.SearchKey, food.Calories, food.Category, time.Now().UTC(), food.ID)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update food: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	updated, err := s.GetFood(ctx, food.ID)
	if err != nil {
		return err
	}
	*food = *updated
	return nil
}

func (s *foodsStorage) SetFoodImage(ctx context.Context, id string, key, contentType string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE foods SET image_key = ?, image_content_type = ?, updated_at = ? WHERE id = ?
	`, key, contentType, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set food image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodsStorage) DeleteFood(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM foods WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete food: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodsStorage) CountFoods(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

func (s *foodsStorage) CountFoodsByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM foods GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count foods by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
