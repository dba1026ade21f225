package mealplans

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/foods"
	"github.com/fdg312/diet-hub/internal/nutrition"
	"github.com/fdg312/diet-hub/internal/storage"
)

var (
	ErrPlanNotFound   = errors.New("meal plan not found")
	ErrItemNotFound   = errors.New("meal plan item not found")
	ErrUnknownFood    = errors.New("unknown food")
	ErrTooManyItems   = errors.New("meal plan item limit reached")
	ErrTargetRequired = errors.New("target_kcal is required when no health profile is saved")
)

// Catalog is the part of the food catalog the planner needs.
type Catalog interface {
	Catalog(ctx context.Context) ([]diet.FoodItem, error)
	Get(ctx context.Context, id string) (*storage.Food, error)
}

// TargetSource supplies defaults from the user's health profile.
type TargetSource interface {
	Target(ctx context.Context, ownerUserID string) (float64, diet.Goal, error)
}

// Service handles meal plans business logic.
type Service struct {
	storage  storage.MealPlansStorage
	catalog  Catalog
	targets  TargetSource
	maxItems int
}

// NewService creates a new meal plans service. maxItems <= 0 disables the cap.
func NewService(storage storage.MealPlansStorage, catalog Catalog, targets TargetSource, maxItems int) *Service {
	return &Service{
		storage:  storage,
		catalog:  catalog,
		targets:  targets,
		maxItems: maxItems,
	}
}

// Suggest builds a plan from the whole catalog without saving it.
func (s *Service) Suggest(ctx context.Context, ownerUserID string, req SuggestRequest) (PlanDTO, error) {
	target, goal, err := s.resolveTarget(ctx, ownerUserID, req)
	if err != nil {
		return PlanDTO{}, err
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return PlanDTO{}, fmt.Errorf("failed to load catalog: %w", err)
	}

	plan, err := diet.BuildPlan(target, goal, catalog)
	if err != nil {
		return PlanDTO{}, err
	}

	slots := make(map[diet.Slot][]ItemDTO, len(diet.Slots))
	for _, slot := range diet.Slots {
		for _, item := range plan.Items(slot) {
			slots[slot] = append(slots[slot], ItemDTO{FoodID: item.ID, Name: item.Name, Calories: item.Calories})
		}
	}
	return buildView(target, goal, slots), nil
}

// Get returns the saved plan. The bool is false when the user has none.
func (s *Service) Get(ctx context.Context, ownerUserID string) (PlanDTO, bool, error) {
	plan, entries, found, err := s.storage.GetMealPlan(ctx, ownerUserID)
	if err != nil {
		return PlanDTO{}, false, err
	}
	if !found {
		return PlanDTO{}, false, nil
	}
	return savedView(plan, entries), true, nil
}

// Replace validates the items against the catalog and overwrites the
// saved plan.
func (s *Service) Replace(ctx context.Context, ownerUserID string, req ReplaceRequest) (PlanDTO, error) {
	if !finitePositive(req.TargetKcal) {
		return PlanDTO{}, fmt.Errorf("%w: target_kcal must be positive", diet.ErrInvalidInput)
	}
	goal, err := diet.ParseGoal(defaultGoal(req.Goal))
	if err != nil {
		return PlanDTO{}, err
	}
	if s.maxItems > 0 && len(req.Items) > s.maxItems {
		return PlanDTO{}, fmt.Errorf("%w (%d)", ErrTooManyItems, s.maxItems)
	}

	upserts := make([]storage.MealPlanEntryUpsert, 0, len(req.Items))
	for i, in := range req.Items {
		upsert, err := s.resolveItem(ctx, in)
		if err != nil {
			return PlanDTO{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		upserts = append(upserts, upsert)
	}

	plan, entries, err := s.storage.ReplaceMealPlan(ctx, ownerUserID, req.TargetKcal, string(goal), upserts)
	if err != nil {
		return PlanDTO{}, err
	}
	return savedView(plan, entries), nil
}

// AddItem appends one food to the saved plan.
func (s *Service) AddItem(ctx context.Context, ownerUserID string, in ItemInput) (PlanDTO, error) {
	_, entries, found, err := s.storage.GetMealPlan(ctx, ownerUserID)
	if err != nil {
		return PlanDTO{}, err
	}
	if !found {
		return PlanDTO{}, ErrPlanNotFound
	}
	if s.maxItems > 0 && len(entries) >= s.maxItems {
		return PlanDTO{}, fmt.Errorf("%w (%d)", ErrTooManyItems, s.maxItems)
	}

	upsert, err := s.resolveItem(ctx, in)
	if err != nil {
		return PlanDTO{}, err
	}
	if _, err := s.storage.AddMealPlanEntry(ctx, ownerUserID, upsert); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PlanDTO{}, ErrPlanNotFound
		}
		return PlanDTO{}, err
	}
	return s.mustGet(ctx, ownerUserID)
}

// RemoveItem drops one entry from the saved plan.
func (s *Service) RemoveItem(ctx context.Context, ownerUserID, entryID string) (PlanDTO, error) {
	if err := s.storage.DeleteMealPlanEntry(ctx, ownerUserID, entryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return PlanDTO{}, ErrItemNotFound
		}
		return PlanDTO{}, err
	}
	return s.mustGet(ctx, ownerUserID)
}

// Delete clears the saved plan.
func (s *Service) Delete(ctx context.Context, ownerUserID string) error {
	err := s.storage.DeleteMealPlan(ctx, ownerUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPlanNotFound
	}
	return err
}

func (s *Service) mustGet(ctx context.Context, ownerUserID string) (PlanDTO, error) {
	plan, found, err := s.Get(ctx, ownerUserID)
	if err != nil {
		return PlanDTO{}, err
	}
	if !found {
		return PlanDTO{}, ErrPlanNotFound
	}
	return plan, nil
}

func (s *Service) resolveTarget(ctx context.Context, ownerUserID string, req SuggestRequest) (float64, diet.Goal, error) {
	var (
		target float64
		goal   diet.Goal
	)
	if req.TargetKcal != nil {
		target = *req.TargetKcal
	}
	if req.Goal != "" {
		g, err := diet.ParseGoal(req.Goal)
		if err != nil {
			return 0, "", err
		}
		goal = g
	}

	if req.TargetKcal == nil || goal == "" {
		profileTarget, profileGoal, err := s.targets.Target(ctx, ownerUserID)
		switch {
		case err == nil:
			if req.TargetKcal == nil {
				target = profileTarget
			}
			if goal == "" {
				goal = profileGoal
			}
		case errors.Is(err, nutrition.ErrProfileNotFound):
			if req.TargetKcal == nil {
				return 0, "", ErrTargetRequired
			}
			goal = diet.GoalMaintain
		default:
			return 0, "", err
		}
	}

	if !finitePositive(target) {
		return 0, "", fmt.Errorf("%w: target_kcal must be positive", diet.ErrInvalidInput)
	}
	return target, goal, nil
}

func (s *Service) resolveItem(ctx context.Context, in ItemInput) (storage.MealPlanEntryUpsert, error) {
	if in.FoodID == "" {
		return storage.MealPlanEntryUpsert{}, fmt.Errorf("%w: food_id is required", diet.ErrInvalidInput)
	}
	food, err := s.catalog.Get(ctx, in.FoodID)
	if errors.Is(err, foods.ErrNotFound) {
		return storage.MealPlanEntryUpsert{}, fmt.Errorf("%w: %s", ErrUnknownFood, in.FoodID)
	}
	if err != nil {
		return storage.MealPlanEntryUpsert{}, err
	}

	slot := diet.Slot(food.Category)
	if in.Slot != "" {
		if slot, err = diet.ParseSlot(in.Slot); err != nil {
			return storage.MealPlanEntryUpsert{}, err
		}
	}
	return storage.MealPlanEntryUpsert{
		Slot:     string(slot),
		FoodID:   food.ID,
		FoodName: food.Name,
		Calories: food.Calories,
	}, nil
}

func savedView(plan storage.MealPlan, entries []storage.MealPlanEntry) PlanDTO {
	slots := make(map[diet.Slot][]ItemDTO, len(diet.Slots))
	for _, e := range entries {
		slot := diet.Slot(e.Slot)
		slots[slot] = append(slots[slot], ItemDTO{ID: e.ID, FoodID: e.FoodID, Name: e.FoodName, Calories: e.Calories})
	}

	view := buildView(plan.TargetKcal, diet.Goal(plan.Goal), slots)
	view.ID = plan.ID
	view.Saved = true
	createdAt, updatedAt := plan.CreatedAt, plan.UpdatedAt
	view.CreatedAt = &createdAt
	view.UpdatedAt = &updatedAt
	return view
}

// buildView lays items out in slot order next to each slot's budget and
// computes totals and status. Callers validate target, so Allocate only
// fails on rows stored before that check; those get zero budgets.
func buildView(target float64, goal diet.Goal, items map[diet.Slot][]ItemDTO) PlanDTO {
	budgets, err := diet.Allocate(target)
	if err != nil {
		log.Printf("WARN meal plan: no slot budgets for target %v: %v", target, err)
	}

	view := PlanDTO{TargetKcal: target, Goal: string(goal)}
	for _, slot := range diet.Slots {
		budget, _ := diet.BudgetFor(budgets, slot)
		sd := SlotDTO{Slot: string(slot), BudgetKcal: budget, Items: items[slot]}
		if sd.Items == nil {
			sd.Items = []ItemDTO{}
		}
		for _, it := range sd.Items {
			sd.TotalKcal += it.Calories
		}
		view.TotalKcal += sd.TotalKcal
		view.ItemCount += len(sd.Items)
		view.Slots = append(view.Slots, sd)
	}
	view.Status, view.ProgressPercent = Status(view.TotalKcal, target)
	return view
}

// Status classifies total against target: over when above it, under when
// below the selection floor, otherwise on track. Progress is capped at 100.
func Status(total, target float64) (string, float64) {
	if target <= 0 {
		return StatusOnTrack, 0
	}
	progress := math.Min(100, total/target*100)
	switch {
	case total > target:
		return StatusOver, progress
	case total < target*diet.FloorRatio:
		return StatusUnder, progress
	default:
		return StatusOnTrack, progress
	}
}

func defaultGoal(goal string) string {
	if goal == "" {
		return string(diet.GoalMaintain)
	}
	return goal
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
