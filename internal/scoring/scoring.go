// Package scoring contains the point arithmetic applied on the client.
package scoring

import "math"

const (
	basePar     = 30
	parStep     = 2
	minPar      = 10
	bonusFactor = 2.0
)

// ParTime returns the target completion time in seconds for a level.
// Par drops by two seconds per level and never goes below ten.
func ParTime(level int) int {
	if level < 1 {
		level = 1
	}
	par := basePar - (level-1)*parStep
	if par < minPar {
		return minPar
	}
	return par
}

// TimeBonus returns the bonus for answering in timeTaken seconds at the given level.
// Answers slower than par minus threshold earn nothing.
func TimeBonus(level int, timeTaken float64, threshold int) int {
	par := float64(ParTime(level))
	if timeTaken < 0 {
		timeTaken = 0
	}
	if timeTaken >= par-float64(threshold) {
		return 0
	}
	return int(math.Floor((par - timeTaken) * bonusFactor))
}

// StreakBonus returns the bonus for the current streak length.
func StreakBonus(streak, rate int) int {
	if streak <= 0 || rate <= 0 {
		return 0
	}
	return streak * rate
}

// ApplyDelta adds delta to score and clamps the result at zero.
func ApplyDelta(score, delta int) int {
	next := score + delta
	if next < 0 {
		return 0
	}
	return next
}
