package session

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/nansu0425/RandomPitchPlayer/utils"
)

// Urgency colors for the remaining time.
var (
	RemainingCritical = utils.GetRGBFromString("#FF0000")
	RemainingWarning  = utils.GetRGBFromString("#FF8C00")
	RemainingNormal   = utils.GetRGBFromString("#0000FF")
)

// FormatRemaining renders seconds as m:ss, truncating fractions. It returns
// an empty string once no time is left.
func FormatRemaining(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return ""
	}
	whole := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}

// RemainingColor picks red under 10 seconds, orange under 30, otherwise blue.
func RemainingColor(seconds float64) colorful.Color {
	switch {
	case seconds < 10:
		return RemainingCritical
	case seconds < 30:
		return RemainingWarning
	default:
		return RemainingNormal
	}
}
