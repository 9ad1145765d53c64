// internal/workers/application/submit-application/handler_test.go
package submitapplication

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

type fakeStore struct {
	job       *models.Job
	jobErr    error
	existing  bool
	existsErr error
	apps      []*models.JobApplication
	upsertErr error
}

func (f *fakeStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	if f.job == nil || f.job.ID != id {
		return nil, errors.NewJobNotFoundError(id)
	}
	return f.job, nil
}

func (f *fakeStore) HasApplication(ctx context.Context, jobID, freelancerID string) (bool, error) {
	return f.existing, f.existsErr
}

func (f *fakeStore) UpsertApplication(ctx context.Context, app *models.JobApplication) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.apps = append(f.apps, app)
	return nil
}

type fakeMirrorWriter struct {
	records []*mirror.Record
	err     error
}

func (f *fakeMirrorWriter) UpsertLocal(ctx context.Context, rec *mirror.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	pushes []string
}

func (f *fakeNotifier) SendPush(ctx context.Context, userID, notifType, title, message string) {
	f.pushes = append(f.pushes, userID+":"+notifType)
}

func openJob() *models.Job {
	return &models.Job{
		ID:         "job-1",
		ClientID:   "client-1",
		ClientName: "Acme",
		Title:      "Build a REST API",
		Status:     models.JobStatusOpen,
	}
}

func validInput() *Input {
	return &Input{
		JobID:          "job-1",
		FreelancerID:   "freelancer-1",
		FreelancerName: "Jordan",
		CoverLetter:    "I have shipped three Go backends.",
		ProposedBudget: 4500,
	}
}

func newTestHandler(t *testing.T, store *fakeStore, cache *fakeMirrorWriter, notifier *fakeNotifier) *Handler {
	t.Helper()
	return NewHandler(DefaultConfig(), store, cache, notifier, logger.NewTestLogger(t))
}

func TestExecuteSuccess(t *testing.T) {
	store := &fakeStore{job: openJob()}
	cache := &fakeMirrorWriter{}
	notifier := &fakeNotifier{}
	handler := newTestHandler(t, store, cache, notifier)

	output, err := handler.Execute(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, output.ApplicationID)
	assert.Equal(t, models.ApplicationStatusPending, output.Status)

	require.Len(t, store.apps, 1)
	app := store.apps[0]
	assert.Equal(t, "Build a REST API", app.JobTitle, "job fields are denormalized onto the application")
	assert.Equal(t, "client-1", app.ClientID)
	assert.Equal(t, "Acme", app.ClientName)

	require.Len(t, cache.records, 1)
	assert.Equal(t, mirror.KindApplication, cache.records[0].Kind)
	assert.Equal(t, "freelancer-1", cache.records[0].OwnerID)
	assert.False(t, cache.records[0].IsSynced, "record enters the sync queue until the sweep confirms it")

	assert.Equal(t, []string{"client-1:new_application"}, notifier.pushes)
}

func TestExecuteJobNotFound(t *testing.T) {
	handler := newTestHandler(t, &fakeStore{}, &fakeMirrorWriter{}, &fakeNotifier{})

	_, err := handler.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_NOT_FOUND")
}

func TestExecuteJobClosed(t *testing.T) {
	job := openJob()
	job.Status = models.JobStatusCompleted
	handler := newTestHandler(t, &fakeStore{job: job}, &fakeMirrorWriter{}, &fakeNotifier{})

	_, err := handler.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_CLOSED")
}

func TestExecuteDuplicateApplication(t *testing.T) {
	store := &fakeStore{job: openJob(), existing: true}
	handler := newTestHandler(t, store, &fakeMirrorWriter{}, &fakeNotifier{})

	_, err := handler.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUPLICATE_APPLICATION")
	assert.Empty(t, store.apps)
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing jobId", func(i *Input) { i.JobID = "" }},
		{"missing freelancerId", func(i *Input) { i.FreelancerID = "" }},
		{"negative budget", func(i *Input) { i.ProposedBudget = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, &fakeStore{job: openJob()}, &fakeMirrorWriter{}, &fakeNotifier{})

			input := validInput()
			tt.mutate(input)

			_, err := handler.Execute(context.Background(), input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "APPLICATION_VALIDATION_FAILED")
		})
	}
}

func TestExecuteStoreFailure(t *testing.T) {
	store := &fakeStore{job: openJob(), upsertErr: fmt.Errorf("insert failed")}
	notifier := &fakeNotifier{}
	handler := newTestHandler(t, store, &fakeMirrorWriter{}, notifier)

	_, err := handler.Execute(context.Background(), validInput())
	require.Error(t, err)
	assert.Empty(t, notifier.pushes, "no notification for a failed submission")
}

func TestExecuteMirrorFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{job: openJob()}
	cache := &fakeMirrorWriter{err: fmt.Errorf("redis down")}
	notifier := &fakeNotifier{}
	handler := newTestHandler(t, store, cache, notifier)

	output, err := handler.Execute(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, output.ApplicationID)
	assert.Len(t, notifier.pushes, 1)
}
