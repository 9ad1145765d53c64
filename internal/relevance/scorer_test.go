// internal/relevance/scorer_test.go
package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace-workers/internal/models"
)

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		target    models.Job
		candidate models.Job
		expected  float64
	}{
		{
			name: "identical category and skills with close budget",
			target: models.Job{
				Category: "Development",
				Skills:   []string{"Kotlin", "Firebase"},
				Budget:   15000,
			},
			candidate: models.Job{
				Category: "Development",
				Skills:   []string{"Kotlin", "SQL"},
				Budget:   14000,
			},
			// 3.0 category + 4.0*(1/2) skills + 2.0 both-unset experience
			// + 1.5 budget ratio 1000/15000 < 0.3
			expected: 8.5,
		},
		{
			name: "full skill overlap",
			target: models.Job{
				Category: "Design",
				Skills:   []string{"Figma", "Illustrator"},
				Budget:   5000,
			},
			candidate: models.Job{
				Category: "Design",
				Skills:   []string{"Illustrator", "Figma", "Photoshop"},
				Budget:   5000,
			},
			expected: 3.0 + 4.0 + 2.0 + 1.5,
		},
		{
			name: "different category no skill overlap",
			target: models.Job{
				Category: "Development",
				Skills:   []string{"Go"},
				Budget:   10000,
			},
			candidate: models.Job{
				Category: "Writing",
				Skills:   []string{"Copywriting"},
				Budget:   1000,
			},
			// only the both-unset experience bonus applies
			expected: 2.0,
		},
		{
			name: "target with no required skills contributes zero skill bonus",
			target: models.Job{
				Category: "Development",
				Skills:   nil,
				Budget:   8000,
			},
			candidate: models.Job{
				Category: "Development",
				Skills:   []string{"Go", "Postgres"},
				Budget:   8000,
			},
			expected: 3.0 + 2.0 + 1.5,
		},
		{
			name: "experience levels set and equal",
			target: models.Job{
				Category:        "Development",
				ExperienceLevel: strPtr("senior"),
				Budget:          10000,
			},
			candidate: models.Job{
				Category:        "Development",
				ExperienceLevel: strPtr("senior"),
				Budget:          10000,
			},
			expected: 3.0 + 2.0 + 1.5,
		},
		{
			name: "experience levels set and different",
			target: models.Job{
				Category:        "Development",
				ExperienceLevel: strPtr("senior"),
				Budget:          10000,
			},
			candidate: models.Job{
				Category:        "Development",
				ExperienceLevel: strPtr("junior"),
				Budget:          10000,
			},
			expected: 3.0 + 1.5,
		},
		{
			name: "one experience level unset",
			target: models.Job{
				Category:        "Development",
				ExperienceLevel: strPtr("senior"),
				Budget:          10000,
			},
			candidate: models.Job{
				Category: "Development",
				Budget:   10000,
			},
			expected: 3.0 + 1.5,
		},
		{
			name: "budget ratio in the near band",
			target: models.Job{
				Category: "Development",
				Budget:   10000,
			},
			candidate: models.Job{
				Category: "Development",
				Budget:   5000,
			},
			// ratio 0.5 falls between 0.3 and 0.6
			expected: 3.0 + 2.0 + 0.5,
		},
		{
			name: "budget ratio beyond the near band",
			target: models.Job{
				Category: "Development",
				Budget:   10000,
			},
			candidate: models.Job{
				Category: "Development",
				Budget:   1000,
			},
			expected: 3.0 + 2.0,
		},
		{
			name: "both budgets zero treated as identical",
			target: models.Job{
				Category: "Development",
				Budget:   0,
			},
			candidate: models.Job{
				Category: "Development",
				Budget:   0,
			},
			expected: 3.0 + 2.0 + 1.5,
		},
		{
			name: "one budget zero",
			target: models.Job{
				Category: "Development",
				Budget:   0,
			},
			candidate: models.Job{
				Category: "Development",
				Budget:   5000,
			},
			// ratio is 1.0, no budget bonus
			expected: 3.0 + 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(&tt.target, &tt.candidate)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func BenchmarkScore(b *testing.B) {
	target := models.Job{
		Category: "Development",
		Skills:   []string{"Go", "Postgres", "Redis", "Docker"},
		Budget:   12000,
	}
	candidate := models.Job{
		Category: "Development",
		Skills:   []string{"Go", "Kubernetes", "Postgres"},
		Budget:   11000,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Score(&target, &candidate)
	}
}
