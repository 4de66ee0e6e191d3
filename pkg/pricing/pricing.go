// Package pricing holds the two pure price computations: the suggested
// base price at task creation and the display markup on the read path.
package pricing

import (
	"fmt"
	"math"
)

// markupFactor is the fixed display-time inflation applied when showing
// a stored rate to the counter-party. The stored value is always the
// pre-markup figure; the presentation layer owns this transform and
// applies it exactly once per render.
const markupFactor = 1.2

// SuggestedHourlyRate returns the default hourly rate for a grade:
// 100 for primary (1-6), 150 for lower secondary (7-9), 200 for upper
// secondary (10-12).
func SuggestedHourlyRate(grade int) (int, error) {
	switch {
	case grade >= 1 && grade <= 6:
		return 100, nil
	case grade >= 7 && grade <= 9:
		return 150, nil
	case grade >= 10 && grade <= 12:
		return 200, nil
	}
	return 0, fmt.Errorf("grade %d outside 1-12", grade)
}

// SuggestedTotal returns the default total price for a task: the grade's
// hourly rate times the duration in hours. The creator may override the
// suggestion before submission.
func SuggestedTotal(grade, durationHours int) (int, error) {
	if durationHours <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %d", durationHours)
	}
	rate, err := SuggestedHourlyRate(grade)
	if err != nil {
		return 0, err
	}
	return rate * durationHours, nil
}

// DisplayPrice applies the 20% display markup to a stored price,
// rounding half away from zero. Never persist the result.
func DisplayPrice(stored int) int {
	return int(math.Round(float64(stored) * markupFactor))
}
