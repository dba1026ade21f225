package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mealPlansStorage struct {
	pool *pgxpool.Pool
}

func newMealPlansStorage(pool *pgxpool.Pool) *mealPlansStorage {
	return &mealPlansStorage{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryOrder = `
	ORDER BY CASE slot WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END, position
`

func (s *mealPlansStorage) GetMealPlan(ctx context.Context, ownerUserID string) (storage.MealPlan, []storage.MealPlanEntry, bool, error) {
	plan, err := getPlan(ctx, s.pool, ownerUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealPlan{}, nil, false, nil
	}
	if err != nil {
		return storage.MealPlan{}, nil, false, fmt.Errorf("failed to get meal plan: %w", err)
	}

	entries, err := listEntries(ctx, s.pool, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, false, err
	}
	return plan, entries, true, nil
}

func (s *mealPlansStorage) ReplaceMealPlan(ctx context.Context, ownerUserID string, targetKcal float64, goal string, upserts []storage.MealPlanEntryUpsert) (storage.MealPlan, []storage.MealPlanEntry, error) {
	// Start transaction
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Entries go with the plan (ON DELETE CASCADE)
	if _, err := tx.Exec(ctx, `DELETE FROM meal_plans WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to delete existing meal plan: %w", err)
	}

	var plan storage.MealPlan
	err = tx.QueryRow(ctx, `
		INSERT INTO meal_plans (id, owner_user_id, target_kcal, goal)
		VALUES ($1, $2, $3, $4)
		RETURNING id, owner_user_id, target_kcal, goal, created_at, updated_at
	`, uuid.New().String(), ownerUserID, targetKcal, goal).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.TargetKcal,
		&plan.Goal,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to create meal plan: %w", err)
	}

	positions := map[string]int{}
	for _, u := range upserts {
		_, err := tx.Exec(ctx, `
			INSERT INTO meal_plan_entries (id, plan_id, slot, food_id, food_name, calories, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New().String(), plan.ID, u.Slot, u.FoodID, u.FoodName, u.Calories, positions[u.Slot])
		if err != nil {
			return storage.MealPlan{}, nil, fmt.Errorf("failed to insert meal plan entry: %w", err)
		}
		positions[u.Slot]++
	}

	entries, err := listEntries(ctx, tx, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plan, entries, nil
}

func (s *mealPlansStorage) AddMealPlanEntry(ctx context.Context, ownerUserID string, u storage.MealPlanEntryUpsert) (storage.MealPlanEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var planID string
	err = tx.QueryRow(ctx, `
		UPDATE meal_plans SET updated_at = now()
		WHERE owner_user_id = $1
		RETURNING id
	`, ownerUserID).Scan(&planID)
	if err != nil {
		return storage.MealPlanEntry{}, notFoundOr(err, "lock meal plan")
	}

	var e storage.MealPlanEntry
	err = tx.QueryRow(ctx, `
		INSERT INTO meal_plan_entries (id, plan_id, slot, food_id, food_name, calories, position)
		VALUES ($1, $2, $3, $4, $5, $6,
		        (SELECT COALESCE(MAX(position) + 1, 0) FROM meal_plan_entries WHERE plan_id = $2 AND slot = $3))
		RETURNING id, plan_id, slot, food_id, food_name, calories, position, created_at
	`, uuid.New().String(), planID, u.Slot, u.FoodID, u.FoodName, u.Calories).Scan(
		&e.ID,
		&e.PlanID,
		&e.Slot,
		&e.FoodID,
		&e.FoodName,
		&e.Calories,
		&e.Position,
		&e.CreatedAt,
	)
	if err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to insert meal plan entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func (s *mealPlansStorage) DeleteMealPlanEntry(ctx context.Context, ownerUserID string, entryID string) error {
	result, err := s.pool.Exec(ctx, `
		DELETE FROM meal_plan_entries e
		USING meal_plans p
		WHERE e.plan_id = p.id AND p.owner_user_id = $1 AND e.id = $2
	`, ownerUserID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *mealPlansStorage) DeleteMealPlan(ctx context.Context, ownerUserID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM meal_plans WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}

func getPlan(ctx context.Context, q querier, ownerUserID string) (storage.MealPlan, error) {
	var plan storage.MealPlan
	err := q.QueryRow(ctx, `
		SELECT id, owner_user_id, target_kcal, goal, created_at, updated_at
		FROM meal_plans
		WHERE owner_user_id = $1
	`, ownerUserID).Scan(
		&plan.ID,
		&plan.OwnerUserID,
		&plan.TargetKcal,
		&plan.Goal,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	return plan, err
}

func listEntries(ctx context.Context, q querier, planID string) ([]storage.MealPlanEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, plan_id, slot, food_id, food_name, calories, position, created_at
		FROM meal_plan_entries
		WHERE plan_id = $1
	`+entryOrder, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan entries: %w", err)
	}
	defer rows.Close()

	entries := []storage.MealPlanEntry{}
	for rows.Next() {
		var e storage.MealPlanEntry
		err := rows.Scan(
			&e.ID,
			&e.PlanID,
			&e.Slot,
			&e.FoodID,
			&e.FoodName,
			&e.Calories,
			&e.Position,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating meal plan entries: %w", rows.Err())
	}
	return entries, nil
}
