// internal/workers/jobs/find-similar-jobs/models.go
package findsimilarjobs

import (
	"context"

	"marketplace-workers/internal/models"
)

type Input struct {
	JobID string `json:"jobId"`
}

type Output struct {
	SimilarJobs []models.Job `json:"similarJobs"`
	Count       int          `json:"count"`
}

// JobReader resolves the target job.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
}

// SimilarityFinder ranks candidate jobs against a target.
type SimilarityFinder interface {
	FindSimilar(ctx context.Context, target *models.Job) []models.Job
}
