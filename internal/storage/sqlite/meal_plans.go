package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/google/uuid"
)

type mealPlansStorage struct {
	db *sql.DB
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *mealPlansStorage) GetMealPlan(ctx context.Context, ownerUserID string) (storage.MealPlan, []storage.MealPlanEntry, bool, error) {
	plan, err := getPlan(ctx, s.db, ownerUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MealPlan{}, nil, false, nil
	}
	if err != nil {
		return storage.MealPlan{}, nil, false, fmt.Errorf("failed to get meal plan: %w", err)
	}
	entries, err := listEntries(ctx, s.db, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, false, err
	}
	return plan, entries, true, nil
}

func (s *mealPlansStorage) ReplaceMealPlan(ctx context.Context, ownerUserID string, targetKcal float64, goal string, upserts []storage.MealPlanEntryUpsert) (storage.MealPlan, []storage.MealPlanEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deletePlan(ctx, tx, ownerUserID); err != nil {
		return storage.MealPlan{}, nil, err
	}

	now := time.Now().UTC()
	plan := storage.MealPlan{
		ID:          uuid.New().String(),
		OwnerUserID: ownerUserID,
		TargetKcal:  targetKcal,
		Goal:        goal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plans (id, owner_user_id, target_kcal, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, plan.ID, plan.OwnerUserID, plan.TargetKcal, plan.Goal, plan.CreatedAt, plan.UpdatedAt)
	if err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to create meal plan: %w", err)
	}

	positions := map[string]int{}
	for _, u := range upserts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meal_plan_entries (id, plan_id, slot, food_id, food_name, calories, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), plan.ID, u.Slot, u.FoodID, u.FoodName, u.Calories, positions[u.Slot], now)
		if err != nil {
			return storage.MealPlan{}, nil, fmt.Errorf("failed to insert meal plan entry: %w", err)
		}
		positions[u.Slot]++
	}

	entries, err := listEntries(ctx, tx, plan.ID)
	if err != nil {
		return storage.MealPlan{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return storage.MealPlan{}, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plan, entries, nil
}

func (s *mealPlansStorage) AddMealPlanEntry(ctx context.Context, ownerUserID string, u storage.MealPlanEntryUpsert) (storage.MealPlanEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	plan, err := getPlan(ctx, tx, ownerUserID)
	if err != nil {
		return storage.MealPlanEntry{}, notFoundOr(err, "get meal plan")
	}

	now := time.Now().UTC()
	e := storage.MealPlanEntry{
		ID:        uuid.New().String(),
		PlanID:    plan.ID,
		Slot:      u.Slot,
		FoodID:    u.FoodID,
		FoodName:  u.FoodName,
		Calories:  u.Calories,
		CreatedAt: now,
	}
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM meal_plan_entries WHERE plan_id = ? AND slot = ?
	`, plan.ID, u.Slot).Scan(&e.Position)
	if err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to compute entry position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_plan_entries (id, plan_id, slot, food_id, food_name, calories, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.PlanID, e.Slot, e.FoodID, e.FoodName, e.Calories, e.Position, e.CreatedAt)
	if err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to insert meal plan entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE meal_plans SET updated_at = ? WHERE id = ?`, now, plan.ID); err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to touch meal plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.MealPlanEntry{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return e, nil
}

func (s *mealPlansStorage) DeleteMealPlanEntry(ctx context.Context, ownerUserID string, entryID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM meal_plan_entries
		WHERE id = ? AND plan_id IN (SELECT id FROM meal_plans WHERE owner_user_id = ?)
	`, entryID, ownerUserID)
	if err != nil {
		return fmt.Errorf("failed to delete meal plan entry: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *mealPlansStorage) DeleteMealPlan(ctx context.Context, ownerUserID string) error {
	return deletePlan(ctx, s.db, ownerUserID)
}

func deletePlan(ctx context.Context, q queryer, ownerUserID string) error {
	if _, err := q.ExecContext(ctx, `
		DELETE FROM meal_plan_entries WHERE plan_id IN (SELECT id FROM meal_plans WHERE owner_user_id = ?)
	`, ownerUserID); err != nil {
		return fmt.Errorf("failed to delete meal plan entries: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM meal_plans WHERE owner_user_id = ?`, ownerUserID); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}

func getPlan(ctx context.Context, q queryer, ownerUserID string) (storage.MealPlan, error) {
	var plan storage.MealPlan
	err := q.QueryRowContext(ctx, `
		SELECT id, owner_user_id, target_kcal, goal, created_at, updated_at
		FROM meal_plans WHERE owner_user_id = ?
	`, ownerUserID).Scan(&plan.ID, &plan.OwnerUserID, &plan.TargetKcal, &plan.Goal, &plan.CreatedAt, &plan.UpdatedAt)
	return plan, err
}

func listEntries(ctx context.Context, q queryer, planID string) ([]storage.MealPlanEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, plan_id, slot, food_id, food_name, calories, position, created_at
		FROM meal_plan_entries
		WHERE plan_id = ?
		ORDER BY CASE slot WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END, position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan entries: %w", err)
	}
	defer rows.Close()

	entries := []storage.MealPlanEntry{}
	for rows.Next() {
		var e storage.MealPlanEntry
		if err := rows.Scan(&e.ID, &e.PlanID, &e.Slot, &e.FoodID, &e.FoodName, &e.Calories, &e.Position, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal plan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
