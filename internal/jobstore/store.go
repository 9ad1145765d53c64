// internal/jobstore/store.go
package jobstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"marketplace-workers/internal/common/database"
	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

// Store is the Postgres-backed job collection shared by the workers and
// the relevance finder. Every write is an upsert by primary key, so
// replaying a record from a sync sweep is safe.
type Store struct {
	db  *database.PostgresClient
	log logger.Logger
}

func NewStore(db *database.PostgresClient, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

const jobColumns = `id, client_id, client_name, title, description, category, skills,
	budget, deadline, location, status, posted_at, experience_level,
	client_rating, review_count, client_bio`

// OpenJobs returns every job still accepting applications.
func (s *Store) OpenJobs(ctx context.Context) ([]models.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE status = $1 ORDER BY posted_at DESC`, jobColumns)
	rows, err := s.db.Query(ctx, query, models.JobStatusOpen)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("open_jobs", err)
	}
	defer rows.Close()
	return s.scanJobs(rows), nil
}

// RecentJobs returns the most recently posted jobs regardless of status.
func (s *Store) RecentJobs(ctx context.Context, limit int) ([]models.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY posted_at DESC LIMIT $1`, jobColumns)
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("recent_jobs", err)
	}
	defer rows.Close()
	return s.scanJobs(rows), nil
}

// JobsByCategory returns up to limit jobs in a category, excluding one id
// (typically the job the caller is comparing against).
func (s *Store) JobsByCategory(ctx context.Context, category, excludeID string, limit int) ([]models.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE category = $1 AND id <> $2 ORDER BY posted_at DESC LIMIT $3`, jobColumns)
	rows, err := s.db.Query(ctx, query, category, excludeID, limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("jobs_by_category", err)
	}
	defer rows.Close()
	return s.scanJobs(rows), nil
}

// scanJobs drains a job result set. A row that fails to scan is skipped
// with a warning so one bad record never aborts the batch.
func (s *Store) scanJobs(rows *sql.Rows) []models.Job {
	var jobs []models.Job
	for rows.Next() {
		var job models.Job
		err := rows.Scan(
			&job.ID, &job.ClientID, &job.ClientName, &job.Title, &job.Description,
			&job.Category, pq.Array(&job.Skills), &job.Budget, &job.Deadline,
			&job.Location, &job.Status, &job.PostedAt, &job.ExperienceLevel,
			&job.ClientRating, &job.ReviewCount, &job.ClientBio,
		)
		if err != nil {
			s.log.Warn("skipping unreadable job row", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("job result set ended early", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return jobs
}

// GetJob fetches a single job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	var job models.Job
	err := s.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.ClientID, &job.ClientName, &job.Title, &job.Description,
		&job.Category, pq.Array(&job.Skills), &job.Budget, &job.Deadline,
		&job.Location, &job.Status, &job.PostedAt, &job.ExperienceLevel,
		&job.ClientRating, &job.ReviewCount, &job.ClientBio,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewJobNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_job", err)
	}
	return &job, nil
}

// UpsertJob inserts or replaces a job by primary key.
func (s *Store) UpsertJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (id, client_id, client_name, title, description, category, skills,
			budget, deadline, location, status, posted_at, experience_level,
			client_rating, review_count, client_bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			client_name = EXCLUDED.client_name,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			skills = EXCLUDED.skills,
			budget = EXCLUDED.budget,
			deadline = EXCLUDED.deadline,
			location = EXCLUDED.location,
			status = EXCLUDED.status,
			posted_at = EXCLUDED.posted_at,
			experience_level = EXCLUDED.experience_level,
			client_rating = EXCLUDED.client_rating,
			review_count = EXCLUDED.review_count,
			client_bio = EXCLUDED.client_bio`
	_, err := s.db.Exec(ctx, query,
		job.ID, job.ClientID, job.ClientName, job.Title, job.Description,
		job.Category, pq.Array(job.Skills), job.Budget, job.Deadline,
		job.Location, job.Status, job.PostedAt, job.ExperienceLevel,
		job.ClientRating, job.ReviewCount, job.ClientBio,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("upsert job %s: %w", job.ID, err))
	}
	return nil
}

// UpsertApplication inserts or replaces an application by primary key.
func (s *Store) UpsertApplication(ctx context.Context, app *models.JobApplication) error {
	query := `
		INSERT INTO applications (id, job_id, freelancer_id, freelancer_name, freelancer_email,
			cover_letter, proposed_budget, status, applied_at, job_title, client_name,
			client_id, freelancer_skills, freelancer_rating, completed_jobs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			freelancer_id = EXCLUDED.freelancer_id,
			freelancer_name = EXCLUDED.freelancer_name,
			freelancer_email = EXCLUDED.freelancer_email,
			cover_letter = EXCLUDED.cover_letter,
			proposed_budget = EXCLUDED.proposed_budget,
			status = EXCLUDED.status,
			applied_at = EXCLUDED.applied_at,
			job_title = EXCLUDED.job_title,
			client_name = EXCLUDED.client_name,
			client_id = EXCLUDED.client_id,
			freelancer_skills = EXCLUDED.freelancer_skills,
			freelancer_rating = EXCLUDED.freelancer_rating,
			completed_jobs = EXCLUDED.completed_jobs`
	_, err := s.db.Exec(ctx, query,
		app.ID, app.JobID, app.FreelancerID, app.FreelancerName, app.FreelancerEmail,
		app.CoverLetter, app.ProposedBudget, app.Status, app.AppliedAt, app.JobTitle,
		app.ClientName, app.ClientID, pq.Array(app.FreelancerSkills),
		app.FreelancerRating, app.CompletedJobs,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("upsert application %s: %w", app.ID, err))
	}
	return nil
}

// UpsertMessage inserts or replaces a chat message by primary key.
func (s *Store) UpsertMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, recipient_id,
			body, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			conversation_id = EXCLUDED.conversation_id,
			sender_id = EXCLUDED.sender_id,
			sender_name = EXCLUDED.sender_name,
			recipient_id = EXCLUDED.recipient_id,
			body = EXCLUDED.body,
			sent_at = EXCLUDED.sent_at,
			read = EXCLUDED.read`
	_, err := s.db.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.SenderName, msg.RecipientID,
		msg.Body, msg.SentAt, msg.Read,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("upsert message %s: %w", msg.ID, err))
	}
	return nil
}

// GetApplication fetches a single application by id.
func (s *Store) GetApplication(ctx context.Context, id string) (*models.JobApplication, error) {
	query := `
		SELECT id, job_id, freelancer_id, freelancer_name, freelancer_email, cover_letter,
			proposed_budget, status, applied_at, job_title, client_name, client_id,
			freelancer_skills, freelancer_rating, completed_jobs
		FROM applications WHERE id = $1`
	var app models.JobApplication
	err := s.db.QueryRow(ctx, query, id).Scan(
		&app.ID, &app.JobID, &app.FreelancerID, &app.FreelancerName, &app.FreelancerEmail,
		&app.CoverLetter, &app.ProposedBudget, &app.Status, &app.AppliedAt, &app.JobTitle,
		&app.ClientName, &app.ClientID, pq.Array(&app.FreelancerSkills),
		&app.FreelancerRating, &app.CompletedJobs,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_application", err)
	}
	return &app, nil
}

// HasApplication reports whether the freelancer already applied to the
// job. This is a pre-check only; nothing stops two concurrent submissions
// from both passing it, so duplicates can still land.
func (s *Store) HasApplication(ctx context.Context, jobID, freelancerID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND freelancer_id = $2)`,
		jobID, freelancerID,
	).Scan(&exists)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("has_application", err)
	}
	return exists, nil
}

// UpdateApplicationStatus sets an application's status without reading it
// first. The transition graph is a client convention, not enforced here.
func (s *Store) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	result, err := s.db.Exec(ctx, `UPDATE applications SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_application_status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("update_application_status", err)
	}
	if affected == 0 {
		return errors.NewApplicationNotFoundError(id)
	}
	return nil
}
