package diet

import (
	"errors"
	"math"
	"testing"
)

func TestAllocate_Split(t *testing.T) {
	budgets, err := Allocate(2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SlotBudget{
		{SlotBreakfast, 600},
		{SlotLunch, 700},
		{SlotDinner, 500},
		{SlotSnack, 200},
	}
	if len(budgets) != len(want) {
		t.Fatalf("expected %d budgets, got %d", len(want), len(budgets))
	}
	for i := range want {
		if budgets[i].Slot != want[i].Slot || !almostEqual(budgets[i].TargetCalories, want[i].TargetCalories) {
			t.Errorf("budget %d: expected %+v, got %+v", i, want[i], budgets[i])
		}
	}
}

func TestAllocate_SumsToTarget(t *testing.T) {
	for _, target := range []float64{0, 1, 999.99, 1843.7, 2507.125, 4000} {
		budgets, err := Allocate(target)
		if err != nil {
			t.Fatalf("target %v: %v", target, err)
		}
		var sum float64
		for _, b := range budgets {
			if b.TargetCalories < 0 {
				t.Errorf("target %v: negative budget %+v", target, b)
			}
			sum += b.TargetCalories
		}
		if math.Abs(sum-target) > 1e-9 {
			t.Errorf("target %v: budgets sum to %v", target, sum)
		}
	}
}

func TestAllocate_RejectsNegative(t *testing.T) {
	if _, err := Allocate(-1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := Allocate(math.Inf(1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for +Inf, got %v", err)
	}
}
