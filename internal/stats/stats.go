// Package stats contains display metrics and the end-of-session summary.
package stats

import (
	"fmt"
	"math"

	"github.com/verte-zerg/mysterydigits/internal/model"
)

// Accuracy returns the rounded percentage of correct attempts, or 0 without attempts.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// FormatAccuracy renders Accuracy with a percent sign.
func FormatAccuracy(correct, total int) string {
	return fmt.Sprintf("%d%%", Accuracy(correct, total))
}

// FormatTime renders whole seconds as m:ss.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// HintsRemaining returns the pluralized hints-left label for the given usage.
func HintsRemaining(used int) string {
	left := model.MaxHints - used
	if left < 0 {
		left = 0
	}
	if left == 1 {
		return "1 hint left"
	}
	return fmt.Sprintf("%d hints left", left)
}
