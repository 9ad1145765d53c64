// internal/workers/application/decide-application/models.go
package decideapplication

import (
	"context"

	"marketplace-workers/internal/models"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	Decision      string `json:"decision"`
	ClientID      string `json:"clientId"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	JobStatus     string `json:"jobStatus,omitempty"`
}

// DecisionStore covers the store operations a decision needs.
type DecisionStore interface {
	GetApplication(ctx context.Context, id string) (*models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpsertJob(ctx context.Context, job *models.Job) error
}

// IndexRemover drops a job from the search index once it leaves the
// open pool.
type IndexRemover interface {
	DeleteJob(ctx context.Context, jobID string) error
}

// Notifier tells the freelancer about the outcome.
type Notifier interface {
	SendPush(ctx context.Context, userID, notifType, title, message string)
	SendEmail(ctx context.Context, to, subject, body string)
}
