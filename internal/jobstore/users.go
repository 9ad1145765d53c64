// internal/jobstore/users.go
package jobstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/models"
)

const userColumns = `id, email, name, role, provider, provider_id, email_verified,
	skills, rating, completed_jobs, bio, created_at`

// GetUserByEmail fetches an account by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	var user models.User
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.Provider,
		&user.ProviderID, &user.EmailVerified, pq.Array(&user.Skills),
		&user.Rating, &user.CompletedJobs, &user.Bio, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError("users", fmt.Sprintf("no account for %s", email))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_user_by_email", err)
	}
	return &user, nil
}

// UpsertUser inserts or replaces an account by primary key.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, role, provider, provider_id, email_verified,
			skills, rating, completed_jobs, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			provider = EXCLUDED.provider,
			provider_id = EXCLUDED.provider_id,
			email_verified = EXCLUDED.email_verified,
			skills = EXCLUDED.skills,
			rating = EXCLUDED.rating,
			completed_jobs = EXCLUDED.completed_jobs,
			bio = EXCLUDED.bio`
	_, err := s.db.Exec(ctx, query,
		user.ID, user.Email, user.Name, user.Role, user.Provider,
		user.ProviderID, user.EmailVerified, pq.Array(user.Skills),
		user.Rating, user.CompletedJobs, user.Bio, user.CreatedAt,
	)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(fmt.Errorf("upsert user %s: %w", user.ID, err))
	}
	return nil
}
