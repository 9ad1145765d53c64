// internal/relevance/scorer.go
package relevance

import (
	"math"

	"marketplace-workers/internal/models"
)

// Scoring weights. These are the ranking contract for similar-job search;
// changing them changes the ordering users see.
const (
	categoryWeight   = 3.0
	skillsWeight     = 4.0
	experienceWeight = 2.0
	budgetCloseBonus = 1.5
	budgetNearBonus  = 0.5

	budgetCloseRatio = 0.3
	budgetNearRatio  = 0.6
)

// Score computes the relevance of a candidate job against a target job.
// Higher is more relevant. The score is derived on demand and never stored.
func Score(target, candidate *models.Job) float64 {
	score := 0.0

	if candidate.Category == target.Category {
		score += categoryWeight
	}

	if len(target.Skills) > 0 {
		overlap := 0
		for _, skill := range target.Skills {
			if candidate.HasSkill(skill) {
				overlap++
			}
		}
		score += skillsWeight * float64(overlap) / float64(len(target.Skills))
	}

	// Two unset experience levels count as equal. This mirrors how the
	// mobile screens behave today; it is arguably too generous but the
	// ranking depends on it.
	if experienceEqual(target.ExperienceLevel, candidate.ExperienceLevel) {
		score += experienceWeight
	}

	score += budgetBonus(target.Budget, candidate.Budget)

	return score
}

func experienceEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// budgetBonus rewards candidates whose budget is close to the target's.
// Two zero budgets are treated as identical.
func budgetBonus(target, candidate float64) float64 {
	larger := math.Max(target, candidate)
	if larger == 0 {
		return budgetCloseBonus
	}

	ratio := math.Abs(target-candidate) / larger
	switch {
	case ratio < budgetCloseRatio:
		return budgetCloseBonus
	case ratio < budgetNearRatio:
		return budgetNearBonus
	default:
		return 0
	}
}
