// Package diet contains the pure calculations behind the meal planner:
// body metrics, per-slot calorie allocation and greedy food selection.
// Nothing here performs I/O or keeps state between calls.
package diet

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for out-of-range numbers and unknown tags.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
