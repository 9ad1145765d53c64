// internal/workers/application/submit-application/models.go
package submitapplication

import (
	"context"

	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

type Input struct {
	JobID            string   `json:"jobId"`
	FreelancerID     string   `json:"freelancerId"`
	FreelancerName   string   `json:"freelancerName"`
	FreelancerEmail  string   `json:"freelancerEmail"`
	CoverLetter      string   `json:"coverLetter"`
	ProposedBudget   float64  `json:"proposedBudget"`
	FreelancerSkills []string `json:"freelancerSkills,omitempty"`
	FreelancerRating *float64 `json:"freelancerRating,omitempty"`
	CompletedJobs    int      `json:"completedJobs,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	AppliedAt     string `json:"appliedAt"`
}

// ApplicationStore covers the store operations a submission needs.
type ApplicationStore interface {
	GetJob(ctx context.Context, id string) (*models.Job, error)
	HasApplication(ctx context.Context, jobID, freelancerID string) (bool, error)
	UpsertApplication(ctx context.Context, app *models.JobApplication) error
}

// MirrorWriter caches the confirmed application for the freelancer.
type MirrorWriter interface {
	UpsertLocal(ctx context.Context, rec *mirror.Record) error
}

// Notifier alerts the job's client about the new application.
type Notifier interface {
	SendPush(ctx context.Context, userID, notifType, title, message string)
}
