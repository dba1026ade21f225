package diet

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTDEE_MaleModerate(t *testing.T) {
	got, err := TDEE(70, 170, 30, SexMale, 1.55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 2507.125) {
		t.Errorf("expected tdee 2507.125, got %v", got)
	}
}

func TestTDEE_SexDifferenceIsConstant(t *testing.T) {
	for _, f := range []float64{1.2, 1.375, 1.55, 1.725, 1.9} {
		male, err := TDEE(82, 181, 41, SexMale, f)
		if err != nil {
			t.Fatalf("male: %v", err)
		}
		female, err := TDEE(82, 181, 41, SexFemale, f)
		if err != nil {
			t.Fatalf("female: %v", err)
		}
		if !almostEqual(male-female, 166*f) {
			t.Errorf("factor %v: expected difference %v, got %v", f, 166*f, male-female)
		}
	}
}

func TestTDEE_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		height float64
		age    float64
		sex    Sex
		factor float64
	}{
		{"zero weight", 0, 170, 30, SexMale, 1.2},
		{"negative height", 70, -1, 30, SexMale, 1.2},
		{"negative age", 70, 170, -1, SexMale, 1.2},
		{"unknown sex", 70, 170, 30, Sex("other"), 1.2},
		{"unknown factor", 70, 170, 30, SexFemale, 1.5},
		{"nan weight", math.NaN(), 170, 30, SexMale, 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TDEE(tt.weight, tt.height, tt.age, tt.sex, tt.factor)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestBMIAndCategory(t *testing.T) {
	bmi, err := BMI(70, 175)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(bmi, 70/(1.75*1.75)) {
		t.Errorf("unexpected bmi %v", bmi)
	}

	cases := map[float64]BMICategory{
		17:   BMIUnderweight,
		18.5: BMINormal,
		24.9: BMINormal,
		25:   BMIOverweight,
		29.9: BMIOverweight,
		30:   BMIObese,
		42:   BMIObese,
	}
	for v, want := range cases {
		if got := CategorizeBMI(v); got != want {
			t.Errorf("CategorizeBMI(%v) = %s, want %s", v, got, want)
		}
	}

	if _, err := BMI(70, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero height, got %v", err)
	}
}

func TestRecommendedCalories(t *testing.T) {
	tdee := 2507.125
	lose, _ := RecommendedCalories(tdee, GoalLose)
	gain, _ := RecommendedCalories(tdee, GoalGain)
	keep, _ := RecommendedCalories(tdee, GoalMaintain)

	if !almostEqual(lose, tdee-500) || !almostEqual(gain, tdee+500) || !almostEqual(keep, tdee) {
		t.Errorf("unexpected recommendations: lose=%v gain=%v maintain=%v", lose, gain, keep)
	}

	if _, err := RecommendedCalories(tdee, Goal("bulk")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown goal, got %v", err)
	}
}

func TestCaloriePolicy_ClampsOnlyWhenConfigured(t *testing.T) {
	kcal, clamped, _ := CaloriePolicy{}.Recommended(1300, GoalLose)
	if kcal != 800 || clamped {
		t.Errorf("expected unclamped 800 without a floor, got %v (clamped=%t)", kcal, clamped)
	}
	kcal, clamped, _ = CaloriePolicy{MinCalories: 1200}.Recommended(1300, GoalLose)
	if kcal != 1200 || !clamped {
		t.Errorf("expected floor 1200, got %v (clamped=%t)", kcal, clamped)
	}
	kcal, clamped, _ = CaloriePolicy{MinCalories: 1200}.Recommended(2000, GoalMaintain)
	if kcal != 2000 || clamped {
		t.Errorf("expected 2000 above the floor, got %v (clamped=%t)", kcal, clamped)
	}
}

func TestAssess_NegativeRecommendationPassesThrough(t *testing.T) {
	p := HealthProfile{Sex: SexFemale, AgeYears: 90, HeightCm: 100, WeightKg: 30, Activity: ActivitySedentary}
	a, err := CaloriePolicy{}.Assess(p, GoalLose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(a.TDEE, 376.8) || !almostEqual(a.RecommendedKcal, -123.2) || a.Clamped {
		t.Errorf("unexpected assessment: %+v", a)
	}
}

func TestAssess(t *testing.T) {
	p := HealthProfile{Sex: SexMale, AgeYears: 30, HeightCm: 170, WeightKg: 70, Activity: ActivityModerate}
	a, err := CaloriePolicy{}.Assess(p, GoalGain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Category != BMINormal {
		t.Errorf("expected normal category, got %s", a.Category)
	}
	if !almostEqual(a.RecommendedKcal, 3007.125) {
		t.Errorf("expected 3007.125 kcal, got %v", a.RecommendedKcal)
	}
}

func TestParseActivityLevel(t *testing.T) {
	for in, want := range map[string]ActivityLevel{
		"sedentary":   ActivitySedentary,
		"Moderate":    ActivityModerate,
		"very_active": ActivityVeryActive,
		"veryActive":  ActivityVeryActive,
	} {
		got, err := ParseActivityLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseActivityLevel(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseActivityLevel("couch"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
