package diet

// SlotBudget is the calorie share of one slot.
type SlotBudget struct {
	Slot           Slot
	TargetCalories float64
}

// slotWeights are percentages of the daily target, in Slots order.
var slotWeights = map[Slot]float64{
	SlotBreakfast: 30,
	SlotLunch:     35,
	SlotDinner:    25,
	SlotSnack:     10,
}

// Allocate splits target across the four slots. The last slot takes the
// remainder so the budgets always add up to target.
func Allocate(target float64) ([]SlotBudget, error) {
	if !finite(target) || target < 0 {
		return nil, invalidf("target calories must be a non-negative number")
	}

	budgets := make([]SlotBudget, 0, len(Slots))
	var assigned float64
	for i, slot := range Slots {
		share := target * slotWeights[slot] / 100
		if i == len(Slots)-1 {
			share = target - assigned
		}
		assigned += share
		budgets = append(budgets, SlotBudget{Slot: slot, TargetCalories: share})
	}
	return budgets, nil
}

// BudgetFor returns the budget of slot from an Allocate result.
func BudgetFor(budgets []SlotBudget, slot Slot) (float64, bool) {
	for _, b := range budgets {
		if b.Slot == slot {
			return b.TargetCalories, true
		}
	}
	return 0, false
}
