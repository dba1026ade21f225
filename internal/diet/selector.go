package diet

import (
	"cmp"
	"math"
	"slices"
)

const (
	// CeilingRatio bounds a slot's selected calories from above.
	CeilingRatio = 1.1
	// FloorRatio is the point at which selection for a slot stops.
	FloorRatio = 0.9
)

// Selection is the outcome of Select for one slot.
type Selection struct {
	Items         []FoodItem
	TotalCalories float64
}

// Rank returns a copy of candidates ordered by preference for goal:
// lowest calories first for lose, highest first for gain and closest to
// target first for maintain. Ties keep their input order.
func Rank(goal Goal, target float64, candidates []FoodItem) []FoodItem {
	ranked := slices.Clone(candidates)
	switch goal {
	case GoalLose:
		slices.SortStableFunc(ranked, func(a, b FoodItem) int {
			return cmp.Compare(a.Calories, b.Calories)
		})
	case GoalGain:
		slices.SortStableFunc(ranked, func(a, b FoodItem) int {
			return cmp.Compare(b.Calories, a.Calories)
		})
	case GoalMaintain:
		slices.SortStableFunc(ranked, func(a, b FoodItem) int {
			return cmp.Compare(math.Abs(a.Calories-target), math.Abs(b.Calories-target))
		})
	}
	return ranked
}

// Ceiling is the most calories a slot with the given target may hold.
func Ceiling(target float64) float64 { return target * CeilingRatio }

// Select greedily picks candidates for one slot. Items are taken in Rank
// order as long as they fit under the ceiling; selection ends once the
// running total reaches the floor. A slot where nothing fits is empty.
func Select(target float64, goal Goal, candidates []FoodItem) (Selection, error) {
	if !finite(target) || target <= 0 {
		return Selection{}, invalidf("slot target must be positive")
	}
	if !goal.Valid() {
		return Selection{}, invalidf("unknown goal %q", string(goal))
	}
	for _, c := range candidates {
		if !finite(c.Calories) || c.Calories < 0 {
			return Selection{}, invalidf("food %q has invalid calories", c.Name)
		}
	}

	ceiling := Ceiling(target)
	floor := target * FloorRatio

	var sel Selection
	for _, item := range Rank(goal, target, candidates) {
		if sel.TotalCalories+item.Calories > ceiling {
			continue
		}
		sel.Items = append(sel.Items, item)
		sel.TotalCalories += item.Calories
		if sel.TotalCalories >= floor {
			break
		}
	}
	return sel, nil
}
