package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/diet-hub/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

type healthProfilesStorage struct {
	pool *pgxpool.Pool
}

func newHealthProfilesStorage(pool *pgxpool.Pool) *healthProfilesStorage {
	return &healthProfilesStorage{pool: pool}
}

func (s *healthProfilesStorage) GetHealthProfile(ctx context.Context, ownerUserID string) (*storage.HealthProfile, error) {
	query := `
		SELECT owner_user_id, sex, age_years, height_cm, weight_kg, activity, goal, created_at, updated_at
		FROM health_profiles
		WHERE owner_user_id = $1
	`

	var p storage.HealthProfile
	err := s.pool.QueryRow(ctx, query, ownerUserID).Scan(
		&p.OwnerUserID,
		&p.Sex,
		&p.AgeYears,
		&p.HeightCm,
		&p.WeightKg,
		&p.Activity,
		&p.Goal,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "get health profile")
	}
	return &p, nil
}

func (s *healthProfilesStorage) UpsertHealthProfile(ctx context.Context, profile *storage.HealthProfile) error {
	query := `
		INSERT INTO health_profiles (owner_user_id, sex, age_years, height_cm, weight_kg, activity, goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_user_id) DO UPDATE
		SET sex = EXCLUDED.sex,
		    age_years = EXCLUDED.age_years,
		    height_cm = EXCLUDED.height_cm,
		    weight_kg = EXCLUDED.weight_kg,
		    activity = EXCLUDED.activity,
		    goal = EXCLUDED.goal,
		    updated_at = now()
		RETURNING created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		profile.OwnerUserID,
		profile.Sex,
		profile.AgeYears,
		profile.HeightCm,
		profile.WeightKg,
		profile.Activity,
		profile.Goal,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert health profile: %w", err)
	}
	return nil
}

func (s *healthProfilesStorage) DeleteHealthProfile(ctx context.Context, ownerUserID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM health_profiles WHERE owner_user_id = $1`, ownerUserID); err != nil {
		return fmt.Errorf("failed to delete health profile: %w", err)
	}
	return nil
}
