package diet

// MealPlan maps slots to ordered food lists. It is a value: With and
// Without return new plans and leave the receiver untouched.
type MealPlan struct {
	slots map[Slot][]FoodItem
	total float64
}

// Items returns a copy of the foods in slot.
func (p MealPlan) Items(slot Slot) []FoodItem {
	items := p.slots[slot]
	if len(items) == 0 {
		return nil
	}
	out := make([]FoodItem, len(items))
	copy(out, items)
	return out
}

// TotalCalories is the sum over every slot.
func (p MealPlan) TotalCalories() float64 { return p.total }

// SlotCalories sums one slot.
func (p MealPlan) SlotCalories(slot Slot) float64 {
	var sum float64
	for _, it := range p.slots[slot] {
		sum += it.Calories
	}
	return sum
}

// Len counts items across slots.
func (p MealPlan) Len() int {
	n := 0
	for _, items := range p.slots {
		n += len(items)
	}
	return n
}

func (p MealPlan) clone() MealPlan {
	next := MealPlan{slots: make(map[Slot][]FoodItem, len(p.slots)), total: p.total}
	for s, items := range p.slots {
		next.slots[s] = append([]FoodItem(nil), items...)
	}
	return next
}

// With appends item to slot.
func (p MealPlan) With(slot Slot, item FoodItem) (MealPlan, error) {
	if !slot.Valid() {
		return p, invalidf("unknown meal slot %q", string(slot))
	}
	if !finite(item.Calories) || item.Calories < 0 {
		return p, invalidf("food %q has invalid calories", item.Name)
	}
	next := p.clone()
	next.slots[slot] = append(next.slots[slot], item)
	next.total += item.Calories
	return next, nil
}

// Without drops the first item with the given ID. The bool reports
// whether anything was removed.
func (p MealPlan) Without(id string) (MealPlan, bool) {
	for _, slot := range Slots {
		for i, it := range p.slots[slot] {
			if it.ID != id {
				continue
			}
			next := p.clone()
			next.slots[slot] = append(next.slots[slot][:i:i], next.slots[slot][i+1:]...)
			next.total -= it.Calories
			return next, true
		}
	}
	return p, false
}

// BuildPlan allocates target across slots and runs Select for each slot
// over the catalog items of that category, in catalog order.
func BuildPlan(target float64, goal Goal, catalog []FoodItem) (MealPlan, error) {
	if !goal.Valid() {
		return MealPlan{}, invalidf("unknown goal %q", string(goal))
	}
	budgets, err := Allocate(target)
	if err != nil {
		return MealPlan{}, err
	}

	bySlot := make(map[Slot][]FoodItem, len(Slots))
	for _, item := range catalog {
		bySlot[item.Category] = append(bySlot[item.Category], item)
	}

	plan := MealPlan{slots: make(map[Slot][]FoodItem, len(Slots))}
	for _, b := range budgets {
		if b.TargetCalories <= 0 {
			continue
		}
		sel, err := Select(b.TargetCalories, goal, bySlot[b.Slot])
		if err != nil {
			return MealPlan{}, err
		}
		if len(sel.Items) > 0 {
			plan.slots[b.Slot] = sel.Items
			plan.total += sel.TotalCalories
		}
	}
	return plan, nil
}
