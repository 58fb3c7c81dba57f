package practice

import (
	"math"

	"dictee/internal/models"
)

// MaxStarsPerUnit is the best rating a unit can earn
const MaxStarsPerUnit = 3

// StarsFor returns the stars awarded for solving a unit on the given attempt
//
//	1 attempt    -> 3 stars
//	2-3 attempts -> 2 stars
//	4+ attempts  -> 1 star
func StarsFor(attempts int) int {
	switch {
	case attempts <= 0:
		return 0
	case attempts == 1:
		return 3
	case attempts <= 3:
		return 2
	default:
		return 1
	}
}

// Summarize reduces resolved outcomes into star totals and a distribution
func Summarize(outcomes []models.UnitOutcome) models.Summary {
	summary := models.Summary{
		MaxStars:     MaxStarsPerUnit * len(outcomes),
		CountByStars: map[int]int{0: 0, 1: 0, 2: 0, 3: 0},
	}

	for _, o := range outcomes {
		summary.TotalStars += o.Stars
		summary.CountByStars[o.Stars]++
	}

	if summary.MaxStars > 0 {
		// Half rounds up.
		summary.Percentage = int(math.Floor(100*float64(summary.TotalStars)/float64(summary.MaxStars) + 0.5))
	}

	return summary
}
