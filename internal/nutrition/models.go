package nutrition

import "time"

// ProfileRequest carries calculator inputs.
type ProfileRequest struct {
	Sex      string  `json:"sex"`
	AgeYears float64 `json:"age_years"`
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
	Activity string  `json:"activity"`
	Goal     string  `json:"goal"`
}

// CalculateRequest is the body of POST /v1/health/calculate.
type CalculateRequest struct {
	ProfileRequest
	Save bool `json:"save"`
}

// ProfileDTO represents a stored health profile.
type ProfileDTO struct {
	Sex       string    `json:"sex"`
	AgeYears  float64   `json:"age_years"`
	HeightCm  float64   `json:"height_cm"`
	WeightKg  float64   `json:"weight_kg"`
	Activity  string    `json:"activity"`
	Goal      string    `json:"goal"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotBudgetDTO is one meal slot's share of the daily target.
type SlotBudgetDTO struct {
	Slot       string  `json:"slot"`
	TargetKcal float64 `json:"target_kcal"`
}

// AssessmentDTO is the calculator result.
type AssessmentDTO struct {
	BMI             float64         `json:"bmi"`
	BMICategory     string          `json:"bmi_category"`
	TDEE            float64         `json:"tdee"`
	RecommendedKcal float64         `json:"recommended_kcal"`
	Clamped         bool            `json:"clamped"`
	Goal            string          `json:"goal"`
	Slots           []SlotBudgetDTO `json:"slots"`
	Saved           bool            `json:"saved,omitempty"`
}

// SummaryResponse is returned by GET /v1/health/summary.
type SummaryResponse struct {
	Profile    ProfileDTO    `json:"profile"`
	Assessment AssessmentDTO `json:"assessment"`
}
