package mealplans

import "time"

const (
	StatusOver    = "over"
	StatusUnder   = "under"
	StatusOnTrack = "on_track"
)

// ItemDTO is one food in a plan slot. ID is empty for unsaved suggestions.
type ItemDTO struct {
	ID       string  `json:"id,omitempty"`
	FoodID   string  `json:"food_id"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
}

type SlotDTO struct {
	Slot       string    `json:"slot"`
	BudgetKcal float64   `json:"budget_kcal"`
	TotalKcal  float64   `json:"total_kcal"`
	Items      []ItemDTO `json:"items"`
}

// PlanDTO is the API view of a meal plan, saved or suggested.
type PlanDTO struct {
	ID              string     `json:"id,omitempty"`
	TargetKcal      float64    `json:"target_kcal"`
	Goal            string     `json:"goal"`
	TotalKcal       float64    `json:"total_kcal"`
	Status          string     `json:"status"`
	ProgressPercent float64    `json:"progress_percent"`
	ItemCount       int        `json:"item_count"`
	Slots           []SlotDTO  `json:"slots"`
	Saved           bool       `json:"saved"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// SuggestRequest is the body of POST /v1/meal/plan/suggest. Missing
// values come from the saved health profile.
type SuggestRequest struct {
	TargetKcal *float64 `json:"target_kcal"`
	Goal       string   `json:"goal"`
}

// ItemInput references a catalog food. Slot defaults to the food's category.
type ItemInput struct {
	FoodID string `json:"food_id"`
	Slot   string `json:"slot"`
}

// ReplaceRequest is the body of PUT /v1/meal/plan.
type ReplaceRequest struct {
	TargetKcal float64     `json:"target_kcal"`
	Goal       string      `json:"goal"`
	Items      []ItemInput `json:"items"`
}
