// internal/models/application.go
package models

import "time"

// Application statuses. pending is the only non-terminal state in the
// client's logic; the server does not enforce the transition graph.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// JobApplication is a freelancer's proposal against a Job. Job and client
// fields are denormalized so list screens render without a join; freelancer
// skills/rating/completed counts are a snapshot taken at application time.
type JobApplication struct {
	ID              string    `json:"id"`
	JobID           string    `json:"jobId"`
	FreelancerID    string    `json:"freelancerId"`
	FreelancerName  string    `json:"freelancerName"`
	FreelancerEmail string    `json:"freelancerEmail"`
	CoverLetter     string    `json:"coverLetter"`
	ProposedBudget  float64   `json:"proposedBudget"`
	Status          string    `json:"status"`
	AppliedAt       time.Time `json:"appliedAt"`

	JobTitle   string `json:"jobTitle"`
	ClientName string `json:"clientName"`
	ClientID   string `json:"clientId"`

	FreelancerSkills []string `json:"freelancerSkills"`
	FreelancerRating *float64 `json:"freelancerRating,omitempty"`
	CompletedJobs    int      `json:"completedJobs"`
}

// IsTerminal reports whether the status can no longer change in the
// client's workflow.
func (a *JobApplication) IsTerminal() bool {
	return a.Status != ApplicationStatusPending
}
