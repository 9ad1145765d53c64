// internal/workers/jobs/browse-jobs/models.go
package browsejobs

import (
	"context"

	"marketplace-workers/internal/models"
)

type Input struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type Output struct {
	Jobs  []models.Job `json:"jobs"`
	Count int          `json:"count"`
}

// JobSearcher runs a keyword query over the job index.
type JobSearcher interface {
	SearchJobs(ctx context.Context, keyword string, limit int) ([]models.Job, error)
}
