package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/diet-hub/internal/diet"
	"github.com/fdg312/diet-hub/internal/storage/memory"
	"github.com/fdg312/diet-hub/internal/userctx"
)

func setup(t *testing.T, policy diet.CaloriePolicy) (*Service, *http.ServeMux) {
	t.Helper()
	store := memory.New()
	service := NewService(store.GetHealthProfilesStorage(), policy)
	h := NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/health/calculate", h.HandleCalculate)
	mux.HandleFunc("GET /v1/health/profile", h.HandleGetProfile)
	mux.HandleFunc("PUT /v1/health/profile", h.HandlePutProfile)
	mux.HandleFunc("DELETE /v1/health/profile", h.HandleDeleteProfile)
	mux.HandleFunc("GET /v1/health/summary", h.HandleSummary)
	return service, mux
}

func request(t *testing.T, mux http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req = req.WithContext(userctx.WithUser(req.Context(), userID, "user"))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

var sample = ProfileRequest{
	Sex:      "male",
	AgeYears: 30,
	HeightCm: 170,
	WeightKg: 70,
	Activity: "moderate",
	Goal:     "lose",
}

func TestCalculate(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{})

	rr := request(t, mux, http.MethodPost, "/v1/health/calculate", "u1", CalculateRequest{ProfileRequest: sample})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got AssessmentDTO
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}

	if math.Abs(got.TDEE-2507.125) > 1e-9 {
		t.Errorf("expected tdee 2507.125, got %v", got.TDEE)
	}
	if math.Abs(got.RecommendedKcal-2007.125) > 1e-9 {
		t.Errorf("expected recommended 2007.125, got %v", got.RecommendedKcal)
	}
	if got.BMICategory != "normal" {
		t.Errorf("expected normal BMI, got %q", got.BMICategory)
	}
	if len(got.Slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(got.Slots))
	}
	var sum float64
	for _, s := range got.Slots {
		sum += s.TargetKcal
	}
	if math.Abs(sum-got.RecommendedKcal) > 1e-9 {
		t.Errorf("slot budgets sum to %v, want %v", sum, got.RecommendedKcal)
	}
	if got.Saved {
		t.Error("expected saved=false without save flag")
	}

	rr = request(t, mux, http.MethodGet, "/v1/health/profile", "u1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected no stored profile, got %d", rr.Code)
	}
}

func TestCalculateInvalidInput(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{})

	tests := []struct {
		name   string
		mutate func(*ProfileRequest)
	}{
		{"unknown sex", func(p *ProfileRequest) { p.Sex = "other" }},
		{"unknown activity", func(p *ProfileRequest) { p.Activity = "couch" }},
		{"unknown goal", func(p *ProfileRequest) { p.Goal = "bulk" }},
		{"zero height", func(p *ProfileRequest) { p.HeightCm = 0 }},
		{"negative weight", func(p *ProfileRequest) { p.WeightKg = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sample
			tt.mutate(&req)
			rr := request(t, mux, http.MethodPost, "/v1/health/calculate", "u1", CalculateRequest{ProfileRequest: req})
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestCalculateSaveAndSummary(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{})

	rr := request(t, mux, http.MethodGet, "/v1/health/summary", "u1", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before save, got %d", rr.Code)
	}

	rr = request(t, mux, http.MethodPost, "/v1/health/calculate", "u1", CalculateRequest{ProfileRequest: sample, Save: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = request(t, mux, http.MethodGet, "/v1/health/summary", "u1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary SummaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Profile.Goal != "lose" || summary.Profile.Activity != "moderate" {
		t.Errorf("unexpected profile %+v", summary.Profile)
	}
	if math.Abs(summary.Assessment.RecommendedKcal-2007.125) > 1e-9 {
		t.Errorf("unexpected recommended %v", summary.Assessment.RecommendedKcal)
	}

	// other users do not see it
	rr = request(t, mux, http.MethodGet, "/v1/health/summary", "u2", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", rr.Code)
	}
}

func TestPutProfileDefaultsGoal(t *testing.T) {
	service, mux := setup(t, diet.CaloriePolicy{})

	req := sample
	req.Goal = ""
	req.Activity = "veryActive"
	rr := request(t, mux, http.MethodPut, "/v1/health/profile", "u1", req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var profile ProfileDTO
	json.NewDecoder(rr.Body).Decode(&profile)
	if profile.Goal != "maintain" || profile.Activity != "very_active" {
		t.Errorf("unexpected normalized profile %+v", profile)
	}

	target, goal, err := service.Target(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if goal != diet.GoalMaintain {
		t.Errorf("expected maintain, got %q", goal)
	}
	// (10*70 + 6.25*170 - 5*30 + 5) * 1.9
	if math.Abs(target-3073.25) > 1e-9 {
		t.Errorf("expected 3073.25, got %v", target)
	}

	rr = request(t, mux, http.MethodDelete, "/v1/health/profile", "u1", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if _, _, err := service.Target(context.Background(), "u1"); err != ErrProfileNotFound {
		t.Errorf("expected ErrProfileNotFound after delete, got %v", err)
	}
}

func TestPolicyFloor(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{MinCalories: 2200})

	rr := request(t, mux, http.MethodPost, "/v1/health/calculate", "u1", CalculateRequest{ProfileRequest: sample})
	var got AssessmentDTO
	json.NewDecoder(rr.Body).Decode(&got)
	if got.RecommendedKcal != 2200 || !got.Clamped {
		t.Errorf("expected clamped floor 2200, got %v (clamped=%t)", got.RecommendedKcal, got.Clamped)
	}
}

func TestCalculateNegativeRecommendation(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{})

	tiny := ProfileRequest{
		Sex:      "female",
		AgeYears: 90,
		HeightCm: 100,
		WeightKg: 30,
		Activity: "sedentary",
		Goal:     "lose",
	}
	rr := request(t, mux, http.MethodPost, "/v1/health/calculate", "u1", CalculateRequest{ProfileRequest: tiny, Save: true})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got AssessmentDTO
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.TDEE-376.8) > 1e-9 {
		t.Errorf("expected tdee 376.8, got %v", got.TDEE)
	}
	if math.Abs(got.RecommendedKcal+123.2) > 1e-9 {
		t.Errorf("expected recommended -123.2, got %v", got.RecommendedKcal)
	}
	if got.Clamped || len(got.Slots) != 0 || got.BMI != 30 {
		t.Errorf("unexpected assessment %+v", got)
	}

	rr = request(t, mux, http.MethodGet, "/v1/health/summary", "u1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var summary SummaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if math.Abs(summary.Assessment.RecommendedKcal+123.2) > 1e-9 {
		t.Errorf("summary: expected recommended -123.2, got %v", summary.Assessment.RecommendedKcal)
	}
}

func TestRequiresUser(t *testing.T) {
	_, mux := setup(t, diet.CaloriePolicy{})
	rr := request(t, mux, http.MethodGet, "/v1/health/profile", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
