package diet

import (
	"strings"
)

// Slot is a meal category. Catalog items carry one and plans are split by them.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotSnack     Slot = "snack"
)

// Slots lists every slot in plan order.
var Slots = []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ParseSlot accepts a slot tag in any case; "snacks" is accepted for snack.
func ParseSlot(s string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return SlotBreakfast, nil
	case "lunch":
		return SlotLunch, nil
	case "dinner":
		return SlotDinner, nil
	case "snack", "snacks":
		return SlotSnack, nil
	}
	return "", invalidf("unknown meal slot %q", s)
}

// Valid reports whether s is one of Slots.
func (s Slot) Valid() bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		return true
	}
	return false
}

// FoodItem is one catalog entry as seen by the planner.
type FoodItem struct {
	ID       string
	Name     string
	Calories float64
	Category Slot
}

// FoodBuilder collects food fields one at a time and only yields a FoodItem
// once every required field is present and valid.
type FoodBuilder struct {
	id          string
	name        string
	calories    float64
	hasCalories bool
	category    string
}

func NewFoodBuilder() *FoodBuilder {
	return &FoodBuilder{}
}

func (b *FoodBuilder) ID(id string) *FoodBuilder {
	b.id = strings.TrimSpace(id)
	return b
}

func (b *FoodBuilder) Name(name string) *FoodBuilder {
	b.name = strings.TrimSpace(name)
	return b
}

func (b *FoodBuilder) Calories(kcal float64) *FoodBuilder {
	b.calories = kcal
	b.hasCalories = true
	return b
}

func (b *FoodBuilder) Category(category string) *FoodBuilder {
	b.category = category
	return b
}

// Build validates the collected fields. ID is optional so that new catalog
// entries can be validated before storage assigns one.
func (b *FoodBuilder) Build() (FoodItem, error) {
	if b.name == "" {
		return FoodItem{}, invalidf("name is required")
	}
	if !b.hasCalories {
		return FoodItem{}, invalidf("calories is required")
	}
	if !finite(b.calories) || b.calories < 0 {
		return FoodItem{}, invalidf("calories must be a non-negative number")
	}
	if strings.TrimSpace(b.category) == "" {
		return FoodItem{}, invalidf("category is required")
	}
	slot, err := ParseSlot(b.category)
	if err != nil {
		return FoodItem{}, err
	}

	return FoodItem{
		ID:       b.id,
		Name:     b.name,
		Calories: b.calories,
		Category: slot,
	}, nil
}
