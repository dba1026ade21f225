package foods

import "time"

// FoodDTO represents a catalog entry in API responses.
type FoodDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  float64   `json:"calories"`
	Category  string    `json:"category"`
	ImageURL  *string   `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FoodRequest is the body of POST /v1/foods and PUT /v1/foods/{id}.
type FoodRequest struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
	Category string   `json:"category"`
}

// ListFoodsResponse represents the response for listing foods.
type ListFoodsResponse struct {
	Items  []FoodDTO `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// ListParams are the parsed query parameters of GET /v1/foods.
type ListParams struct {
	Category string
	Query    string
	MinKcal  *float64
	MaxKcal  *float64
	Limit    int
	Offset   int
}

// SlotSuggestions are the catalog items that fit one slot's budget.
type SlotSuggestions struct {
	Slot        string    `json:"slot"`
	BudgetKcal  float64   `json:"budget_kcal"`
	CeilingKcal float64   `json:"ceiling_kcal"`
	Items       []FoodDTO `json:"items"`
}

// SuggestionsResponse represents the response of GET /v1/foods/suggestions.
type SuggestionsResponse struct {
	Goal       string            `json:"goal"`
	TargetKcal float64           `json:"target_kcal"`
	Slots      []SlotSuggestions `json:"slots"`
}

type seedFood struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Category string  `json:"category"`
}
