package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fdg312/diet-hub/internal/storage"
)

type healthProfilesStorage struct {
	db *sql.DB
}

func (s *healthProfilesStorage) GetHealthProfile(ctx context.Context, ownerUserID string) (*storage.HealthProfile, error) {
	var p storage.HealthProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_user_id, sex, age_years, height_cm, weight_kg, activity, goal, created_at, updated_at
		FROM health_profiles WHERE owner_user_id = ?
	`, ownerUserID).Scan(&p.OwnerUserID, &p.Sex, &p.AgeYears, &p.HeightCm, &p.WeightKg, &p.Activity, &p.Goal, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, "get health profile")
	}
	return &p, nil
}

func (s *healthProfilesStorage) UpsertHealthProfile(ctx context.Context, profile *storage.HealthProfile) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_profiles (owner_user_id, sex, age_years, height_cm, weight_kg, activity, goal, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_user_id) DO UPDATE
		SET sex = excluded.sex,
		    age_years = excluded.age_years,
		    height_cm = excluded.height_cm,
		    weight_kg = excluded.weight_kg,
		    activity = excluded.activity,
		    goal = excluded.goal,
		    updated_at = excluded.updated_at
	`, profile.OwnerUserID, profile.Sex, profile.AgeYears, profile.HeightCm, profile.WeightKg, profile.Activity, profile.Goal, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert health profile: %w", err)
	}

	stored, err := s.GetHealthProfile(ctx, profile.OwnerUserID)
	if err != nil {
		return err
	}
	*profile = *stored
	return nil
}

func (s *healthProfilesStorage) DeleteHealthProfile(ctx context.Context, ownerUserID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM health_profiles WHERE owner_user_id = ?`, ownerUserID); err != nil {
		return fmt.Errorf("failed to delete health profile: %w", err)
	}
	return nil
}
