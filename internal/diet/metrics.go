package diet

import "strings"

// BMICategory is one of four contiguous BMI bands.
type BMICategory string

const (
	BMIUnderweight BMICategory = "underweight"
	BMINormal      BMICategory = "normal"
	BMIOverweight  BMICategory = "overweight"
	BMIObese       BMICategory = "obese"
)

// Sex selects the Mifflin-St Jeor constant.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func ParseSex(s string) (Sex, error) {
	switch Sex(strings.ToLower(strings.TrimSpace(s))) {
	case SexMale:
		return SexMale, nil
	case SexFemale:
		return SexFemale, nil
	}
	return "", invalidf("unknown sex %q", s)
}

// ActivityLevel names one of the fixed TDEE multipliers.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityFactors = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// ParseActivityLevel accepts the snake_case names plus "veryActive".
func ParseActivityLevel(s string) (ActivityLevel, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "veryActive") {
		return ActivityVeryActive, nil
	}
	level := ActivityLevel(strings.ToLower(v))
	if _, ok := activityFactors[level]; !ok {
		return "", invalidf("unknown activity level %q", s)
	}
	return level, nil
}

// Factor returns the multiplier for a known level.
func (a ActivityLevel) Factor() (float64, error) {
	f, ok := activityFactors[a]
	if !ok {
		return 0, invalidf("unknown activity level %q", string(a))
	}
	return f, nil
}

func validActivityFactor(f float64) bool {
	for _, known := range activityFactors {
		if f == known {
			return true
		}
	}
	return false
}

// HealthProfile carries the anthropometric inputs of one person.
type HealthProfile struct {
	Sex      Sex
	AgeYears float64
	HeightCm float64
	WeightKg float64
	Activity ActivityLevel
}

// BMI returns weightKg / (heightCm/100)^2.
func BMI(weightKg, heightCm float64) (float64, error) {
	if !finite(weightKg) || weightKg <= 0 {
		return 0, invalidf("weight must be positive")
	}
	if !finite(heightCm) || heightCm <= 0 {
		return 0, invalidf("height must be positive")
	}
	m := heightCm / 100
	return weightKg / (m * m), nil
}

// CategorizeBMI maps a BMI value onto its band.
func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}

// TDEE estimates total daily energy expenditure with the Mifflin-St Jeor
// equation. activityFactor must be one of the fixed multipliers.
func TDEE(weightKg, heightCm, ageYears float64, sex Sex, activityFactor float64) (float64, error) {
	if !finite(weightKg) || weightKg <= 0 {
		return 0, invalidf("weight must be positive")
	}
	if !finite(heightCm) || heightCm <= 0 {
		return 0, invalidf("height must be positive")
	}
	if !finite(ageYears) || ageYears < 0 {
		return 0, invalidf("age must not be negative")
	}
	if !validActivityFactor(activityFactor) {
		return 0, invalidf("unsupported activity factor %v", activityFactor)
	}

	bmr := 10*weightKg + 6.25*heightCm - 5*ageYears
	switch sex {
	case SexMale:
		bmr += 5
	case SexFemale:
		bmr -= 161
	default:
		return 0, invalidf("unknown sex %q", string(sex))
	}
	return bmr * activityFactor, nil
}

// TDEE is a convenience wrapper resolving the activity level first.
func (p HealthProfile) TDEE() (float64, error) {
	f, err := p.Activity.Factor()
	if err != nil {
		return 0, err
	}
	return TDEE(p.WeightKg, p.HeightCm, p.AgeYears, p.Sex, f)
}

// BMI of the profile.
func (p HealthProfile) BMI() (float64, error) {
	return BMI(p.WeightKg, p.HeightCm)
}

// GoalAdjustment is the daily surplus or deficit applied for gain and lose.
const GoalAdjustment = 500.0

// RecommendedCalories shifts tdee by GoalAdjustment according to goal.
// The result is not clamped; see CaloriePolicy.
func RecommendedCalories(tdee float64, goal Goal) (float64, error) {
	if !finite(tdee) {
		return 0, invalidf("tdee must be a finite number")
	}
	switch goal {
	case GoalLose:
		return tdee - GoalAdjustment, nil
	case GoalGain:
		return tdee + GoalAdjustment, nil
	case GoalMaintain:
		return tdee, nil
	}
	return 0, invalidf("unknown goal %q", string(goal))
}

// CaloriePolicy optionally enforces a floor on recommended calories.
// The zero value leaves results untouched.
type CaloriePolicy struct {
	MinCalories float64
}

// Recommended applies the floor to RecommendedCalories. clamped is true
// when the floor replaced the raw value.
func (p CaloriePolicy) Recommended(tdee float64, goal Goal) (kcal float64, clamped bool, err error) {
	kcal, err = RecommendedCalories(tdee, goal)
	if err != nil {
		return 0, false, err
	}
	if p.MinCalories > 0 && kcal < p.MinCalories {
		return p.MinCalories, true, nil
	}
	return kcal, false, nil
}

// Assessment bundles every number the health calculator reports.
type Assessment struct {
	BMI             float64
	Category        BMICategory
	TDEE            float64
	RecommendedKcal float64
	Clamped         bool
	Goal            Goal
}

// Assess runs BMI, TDEE and the recommendation for one profile.
func (p CaloriePolicy) Assess(profile HealthProfile, goal Goal) (Assessment, error) {
	bmi, err := profile.BMI()
	if err != nil {
		return Assessment{}, err
	}
	tdee, err := profile.TDEE()
	if err != nil {
		return Assessment{}, err
	}
	kcal, clamped, err := p.Recommended(tdee, goal)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		BMI:             bmi,
		Category:        CategorizeBMI(bmi),
		TDEE:            tdee,
		RecommendedKcal: kcal,
		Clamped:         clamped,
		Goal:            goal,
	}, nil
}
