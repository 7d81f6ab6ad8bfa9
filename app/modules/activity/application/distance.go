package activityservice

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDistance reads a kilometre value typed by a user. A comma is accepted
// as the decimal separator.
func ParseDistance(text string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	km, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidDistance, text)
	}
	if err := ValidateDistance(km); err != nil {
		return 0, err
	}
	return km, nil
}

// ValidateDistance rejects zero, negative and non-finite values.
func ValidateDistance(km float64) error {
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrInvalidDistance, km)
	}
	if km <= 0 {
		return fmt.Errorf("%w: %v must be greater than zero", ErrInvalidDistance, km)
	}
	return nil
}
