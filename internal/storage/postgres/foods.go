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

type foodsStorage struct {
	pool *pgxpool.Pool
}

func newFoodsStorage(pool *pgxpool.Pool) *foodsStorage {
	return &foodsStorage{pool: pool}
}

const foodColumns = `id, name, search_key, calories, category, image_key, image_content_type, created_at, updated_at`

func scanFood(row pgx.Row) (*storage.Food, error) {
	var f storage.Food
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.SearchKey,
		&f.Calories,
		&f.Category,
		&f.ImageKey,
		&f.ImageContentType,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *foodsStorage) ListFoods(ctx context.Context, filter storage.FoodFilter) ([]storage.Food, int, error) {
	// Build query with optional filters
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Query != "" {
		add("search_key LIKE $%d", "%"+filter.Query+"%")
	}
	if filter.MinKcal != nil {
		add("calories >= $%d", *filter.MinKcal)
	}
	if filter.MaxKcal != nil {
		add("calories <= $%d", *filter.MaxKcal)
	}

	whereClause := ""
	if len(conds) > 0 {
		whereClause = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM foods "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count foods: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM foods
		%s
		ORDER BY search_key ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, foodColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, pgLimit(filter.Limit), filter.Offset)

	rows, err := s.pool.Query(ctx, listQuery, args...)
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
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating foods: %w", rows.Err())
	}

	return foods, total, nil
}

func (s *foodsStorage) GetFood(ctx context.Context, id string) (*storage.Food, error) {
	f, err := scanFood(s.pool.QueryRow(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get food")
	}
	return f, nil
}

func (s *foodsStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	if food.ID == "" {
		food.ID = uuid.New().String()
	}
	now := time.Now()
	food.CreatedAt = now
	food.UpdatedAt = now

	query := `
		INSERT INTO foods (id, name, search_key, calories, category, image_key, image_content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		food.ID,
		food.Name,
		food.SearchKey,
		food.Calories,
		food.Category,
		food.ImageKey,
		food.ImageContentType,
		food.CreatedAt,
		food.UpdatedAt,
	)
	if isUniqueViolation(err, "foods_search_key_unique_idx") {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create food: %w", err)
	}
	return nil
}

func (s *foodsStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	query := `
		UPDATE foods
		SET name = $2, search_key = $3, calories = $4, category = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + foodColumns
	updated, err := scanFood(s.pool.QueryRow(ctx, query,
		food.ID,
		food.Name,
		food.SearchKey,
		food.Calories,
		food.Category,
	))
	if isUniqueViolation(err, "foods_search_key_unique_idx") {
		return storage.ErrConflict
	}
	if err != nil {
		return notFoundOr(err, "update food")
	}
	*food = *updated
	return nil
}

func (s *foodsStorage) SetFoodImage(ctx context.Context, id string, key, contentType string) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE foods SET image_key = $2, image_content_type = $3, updated_at = now()
		WHERE id = $1
	`, id, key, contentType)
	if err != nil {
		return fmt.Errorf("failed to set food image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodsStorage) DeleteFood(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM foods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete food: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *foodsStorage) CountFoods(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count foods: %w", err)
	}
	return n, nil
}

func (s *foodsStorage) CountFoodsByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, COUNT(*) FROM foods GROUP BY category`)
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
