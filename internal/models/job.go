// internal/models/job.go
package models

import "time"

// Job statuses. In practice a job moves open -> in_progress -> completed,
// but writes are not gated on the previous value.
const (
	JobStatusOpen       = "open"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
)

// LocationRemote is the recognized sentinel for remote jobs.
const LocationRemote = "Remote"

// Job is a posted work opportunity.
type Job struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"clientId"`
	ClientName      string    `json:"clientName"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Skills          []string  `json:"skills"`
	Budget          float64   `json:"budget"`
	Deadline        time.Time `json:"deadline"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	PostedAt        time.Time `json:"postedAt"`
	ExperienceLevel *string   `json:"experienceLevel,omitempty"`
	ClientRating    *float64  `json:"clientRating,omitempty"`
	ReviewCount     int       `json:"reviewCount,omitempty"`
	ClientBio       string    `json:"clientBio,omitempty"`
}

func (j *Job) IsRemote() bool {
	return j.Location == LocationRemote
}

// HasSkill reports whether the job lists the given required skill.
func (j *Job) HasSkill(skill string) bool {
	for _, s := range j.Skills {
		if s == skill {
			return true
		}
	}
	return false
}
