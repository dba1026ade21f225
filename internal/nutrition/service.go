package nutrition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/storage"
)

// ErrProfileNotFound is returned when the user has not saved a health profile.
var ErrProfileNotFound = errors.New("health profile not found")

// Service handles the health calculator and saved profiles.
type Service struct {
	profiles storage.HealthProfilesStorage
	policy   diet.CaloriePolicy
}

// NewService creates a new nutrition service.
func NewService(profiles storage.HealthProfilesStorage, policy diet.CaloriePolicy) *Service {
	return &Service{
		profiles: profiles,
		policy:   policy,
	}
}

// Calculate assesses the request and, when Save is set, stores it as the
// user's profile.
func (s *Service) Calculate(ctx context.Context, ownerUserID string, req CalculateRequest) (AssessmentDTO, error) {
	profile, goal, err := parseProfile(req.ProfileRequest)
	if err != nil {
		return AssessmentDTO{}, err
	}
	dto, err := s.assess(profile, goal)
	if err != nil {
		return AssessmentDTO{}, err
	}

	if req.Save {
		if _, err := s.save(ctx, ownerUserID, profile, goal); err != nil {
			return AssessmentDTO{}, err
		}
		dto.Saved = true
	}
	return dto, nil
}

// GetProfile returns the user's saved profile.
func (s *Service) GetProfile(ctx context.Context, ownerUserID string) (ProfileDTO, error) {
	p, err := s.profiles.GetHealthProfile(ctx, ownerUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return ProfileDTO{}, ErrProfileNotFound
	}
	if err != nil {
		return ProfileDTO{}, fmt.Errorf("failed to get health profile: %w", err)
	}
	return toProfileDTO(p), nil
}

// PutProfile validates and stores the user's profile.
func (s *Service) PutProfile(ctx context.Context, ownerUserID string, req ProfileRequest) (ProfileDTO, error) {
	profile, goal, err := parseProfile(req)
	if err != nil {
		return ProfileDTO{}, err
	}
	// the profile must be usable by the calculator
	if _, err := s.assess(profile, goal); err != nil {
		return ProfileDTO{}, err
	}
	return s.save(ctx, ownerUserID, profile, goal)
}

// Summary runs the calculator over the saved profile.
func (s *Service) Summary(ctx context.Context, ownerUserID string) (SummaryResponse, error) {
	dto, err := s.GetProfile(ctx, ownerUserID)
	if err != nil {
		return SummaryResponse{}, err
	}
	profile, goal, err := parseProfile(ProfileRequest{
		Sex:      dto.Sex,
		AgeYears: dto.AgeYears,
		HeightCm: dto.HeightCm,
		WeightKg: dto.WeightKg,
		Activity: dto.Activity,
		Goal:     dto.Goal,
	})
	if err != nil {
		return SummaryResponse{}, err
	}
	assessment, err := s.assess(profile, goal)
	if err != nil {
		return SummaryResponse{}, err
	}
	return SummaryResponse{Profile: dto, Assessment: assessment}, nil
}

// Target returns the recommended daily calories and goal from the saved
// profile. Meal planning uses it when the request omits them.
func (s *Service) Target(ctx context.Context, ownerUserID string) (float64, diet.Goal, error) {
	summary, err := s.Summary(ctx, ownerUserID)
	if err != nil {
		return 0, "", err
	}
	return summary.Assessment.RecommendedKcal, diet.Goal(summary.Assessment.Goal), nil
}

// DeleteProfile removes the saved profile.
func (s *Service) DeleteProfile(ctx context.Context, ownerUserID string) error {
	err := s.profiles.DeleteHealthProfile(ctx, ownerUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrProfileNotFound
	}
	return err
}

func (s *Service) assess(profile diet.HealthProfile, goal diet.Goal) (AssessmentDTO, error) {
	a, err := s.policy.Assess(profile, goal)
	if err != nil {
		return AssessmentDTO{}, err
	}
	// A negative recommendation is reported as is, with no slot budgets.
	slots := []SlotBudgetDTO{}
	if a.RecommendedKcal >= 0 {
		budgets, err := diet.Allocate(a.RecommendedKcal)
		if err != nil {
			return AssessmentDTO{}, err
		}
		slots = make([]SlotBudgetDTO, len(budgets))
		for i, b := range budgets {
			slots[i] = SlotBudgetDTO{Slot: string(b.Slot), TargetKcal: b.TargetCalories}
		}
	}
	return AssessmentDTO{
		BMI:             a.BMI,
		BMICategory:     string(a.Category),
		TDEE:            a.TDEE,
		RecommendedKcal: a.RecommendedKcal,
		Clamped:         a.Clamped,
		Goal:            string(a.Goal),
		Slots:           slots,
	}, nil
}

func (s *Service) save(ctx context.Context, ownerUserID string, profile diet.HealthProfile, goal diet.Goal) (ProfileDTO, error) {
	p := &storage.HealthProfile{
		OwnerUserID: ownerUserID,
		Sex:         string(profile.Sex),
		AgeYears:    profile.AgeYears,
		HeightCm:    profile.HeightCm,
		WeightKg:    profile.WeightKg,
		Activity:    string(profile.Activity),
		Goal:        string(goal),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.profiles.UpsertHealthProfile(ctx, p); err != nil {
		return ProfileDTO{}, fmt.Errorf("failed to save health profile: %w", err)
	}
	return toProfileDTO(p), nil
}

// parseProfile maps request strings onto kernel types. An empty goal
// means maintain.
func parseProfile(req ProfileRequest) (diet.HealthProfile, diet.Goal, error) {
	sex, err := diet.ParseSex(req.Sex)
	if err != nil {
		return diet.HealthProfile{}, "", err
	}
	activity, err := diet.ParseActivityLevel(req.Activity)
	if err != nil {
		return diet.HealthProfile{}, "", err
	}
	goal := diet.GoalMaintain
	if req.Goal != "" {
		if goal, err = diet.ParseGoal(req.Goal); err != nil {
			return diet.HealthProfile{}, "", err
		}
	}
	return diet.HealthProfile{
		Sex:      sex,
		AgeYears: req.AgeYears,
		HeightCm: req.HeightCm,
		WeightKg: req.WeightKg,
		Activity: activity,
	}, goal, nil
}

func toProfileDTO(p *storage.HealthProfile) ProfileDTO {
	return ProfileDTO{
		Sex:       p.Sex,
		AgeYears:  p.AgeYears,
		HeightCm:  p.HeightCm,
		WeightKg:  p.WeightKg,
		Activity:  p.Activity,
		Goal:      p.Goal,
		UpdatedAt: p.UpdatedAt,
	}
}
