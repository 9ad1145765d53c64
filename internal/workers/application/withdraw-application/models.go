// internal/workers/application/withdraw-application/models.go
package withdrawapplication

import (
	"context"

	"marketplace-workers/internal/models"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	FreelancerID  string `json:"freelancerId"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

// WithdrawalStore covers the store operations a withdrawal needs.
type WithdrawalStore interface {
	GetApplication(ctx context.Context, id string) (*models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
}

// MirrorPurger drops the withdrawn application from the local cache.
type MirrorPurger interface {
	Delete(ctx context.Context, id string) error
}
