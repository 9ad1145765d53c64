// internal/models/user.go
package models

import "time"

// User roles.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// Identity providers for SSO sign-in.
const (
	ProviderGoogle = "google"
	ProviderEmail  = "email"
)

// User is a registered account, client or freelancer.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Provider      string    `json:"provider"`
	ProviderID    string    `json:"providerId,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	Skills        []string  `json:"skills,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	CompletedJobs int       `json:"completedJobs"`
	Bio           string    `json:"bio,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
