// internal/workers/jobs/post-job/models.go
package postjob

import (
	"context"

	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

type Input struct {
	ClientID        string   `json:"clientId"`
	ClientName      string   `json:"clientName"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Skills          []string `json:"skills"`
	Budget          float64  `json:"budget"`
	Deadline        string   `json:"deadline"`
	Location        string   `json:"location"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
}

type Output struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"`
	PostedAt string `json:"postedAt"`
}

// JobWriter persists the new posting.
type JobWriter interface {
	UpsertJob(ctx context.Context, job *models.Job) error
}

// JobIndexer feeds the full-text search index.
type JobIndexer interface {
	IndexJob(ctx context.Context, job *models.Job) error
}

// MirrorWriter caches the confirmed posting locally.
type MirrorWriter interface {
	UpsertLocal(ctx context.Context, rec *mirror.Record) error
}
