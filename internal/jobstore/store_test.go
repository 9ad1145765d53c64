// internal/jobstore/store_test.go
package jobstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-workers/internal/common/database"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := &database.PostgresClient{DB: db}
	return NewStore(client, logger.NewNoOpLogger()), mock
}

var jobRowColumns = []string{
	"id", "client_id", "client_name", "title", "description", "category", "skills",
	"budget", "deadline", "location", "status", "posted_at", "experience_level",
	"client_rating", "review_count", "client_bio",
}

func addJobRow(rows *sqlmock.Rows, id string, budget interface{}) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "client-1", "Acme", "Title "+id, "Description", "Development",
		"{Go,Postgres}", budget, now.Add(72*time.Hour), "Remote", "open", now,
		nil, nil, 0, "",
	)
}

func TestOpenJobs(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows(jobRowColumns)
	addJobRow(rows, "job-1", 5000.0)
	addJobRow(rows, "job-2", 8000.0)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE status = \$1`).
		WithArgs(models.JobStatusOpen).
		WillReturnRows(rows)

	jobs, err := store.OpenJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, []string{"Go", "Postgres"}, jobs[0].Skills)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenJobsSkipsUnreadableRow(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows(jobRowColumns)
	addJobRow(rows, "job-good", 5000.0)
	// budget is not a number; the scan fails and the row is dropped
	addJobRow(rows, "job-bad", "not-a-budget")

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE status = \$1`).
		WithArgs(models.JobStatusOpen).
		WillReturnRows(rows)

	jobs, err := store.OpenJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-good", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentJobsAppliesLimit(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows(jobRowColumns)
	addJobRow(rows, "job-1", 5000.0)

	mock.ExpectQuery(`SELECT .+ FROM jobs ORDER BY posted_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(rows)

	jobs, err := store.RecentJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobsByCategoryExcludesID(t *testing.T) {
	store, mock := newTestStore(t)

	rows := sqlmock.NewRows(jobRowColumns)
	addJobRow(rows, "job-2", 5000.0)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE category = \$1 AND id <> \$2`).
		WithArgs("Development", "job-1", 20).
		WillReturnRows(rows)

	jobs, err := store.JobsByCategory(context.Background(), "Development", "job-1", 20)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobNotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertJob(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO jobs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.Job{
		ID:       "job-1",
		ClientID: "client-1",
		Title:    "Build an API",
		Category: "Development",
		Skills:   []string{"Go"},
		Budget:   5000,
		Status:   models.JobStatusOpen,
		PostedAt: time.Now(),
	}
	require.NoError(t, store.UpsertJob(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertApplication(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := &models.JobApplication{
		ID:           "app-1",
		JobID:        "job-1",
		FreelancerID: "freelancer-1",
		Status:       models.ApplicationStatusPending,
		AppliedAt:    time.Now(),
	}
	require.NoError(t, store.UpsertApplication(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasApplication(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("job-1", "freelancer-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.HasApplication(context.Background(), "job-1", "freelancer-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationStatus(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE applications SET status = \$1 WHERE id = \$2`).
		WithArgs(models.ApplicationStatusAccepted, "app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateApplicationStatus(context.Background(), "app-1", models.ApplicationStatusAccepted)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateApplicationStatusNotFound(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE applications SET status = \$1 WHERE id = \$2`).
		WithArgs(models.ApplicationStatusAccepted, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateApplicationStatus(context.Background(), "missing", models.ApplicationStatusAccepted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICATION_NOT_FOUND")
	assert.NoError(t, mock.ExpectationsWereMet())
}
