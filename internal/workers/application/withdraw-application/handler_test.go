// internal/workers/application/withdraw-application/handler_test.go
package withdrawapplication

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/models"
)

type fakeStore struct {
	app           *models.JobApplication
	statusUpdates map[string]string
	updateErr     error
}

func (f *fakeStore) GetApplication(ctx context.Context, id string) (*models.JobApplication, error) {
	if f.app == nil || f.app.ID != id {
		return nil, errors.NewApplicationNotFoundError(id)
	}
	return f.app, nil
}

func (f *fakeStore) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.statusUpdates == nil {
		f.statusUpdates = map[string]string{}
	}
	f.statusUpdates[id] = status
	return nil
}

type fakePurger struct {
	deleted []string
	err     error
}

func (f *fakePurger) Delete(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func pendingApplication() *models.JobApplication {
	return &models.JobApplication{
		ID:           "app-1",
		JobID:        "job-1",
		FreelancerID: "freelancer-1",
		Status:       models.ApplicationStatusPending,
	}
}

func newTestHandler(t *testing.T, store *fakeStore, purger *fakePurger) *Handler {
	t.Helper()
	return NewHandler(DefaultConfig(), store, purger, logger.NewTestLogger(t))
}

func TestExecuteWithdraw(t *testing.T) {
	store := &fakeStore{app: pendingApplication()}
	purger := &fakePurger{}
	handler := newTestHandler(t, store, purger)

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		FreelancerID:  "freelancer-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ApplicationStatusWithdrawn, output.Status)
	assert.Equal(t, models.ApplicationStatusWithdrawn, store.statusUpdates["app-1"])
	assert.Equal(t, []string{"app-1"}, purger.deleted)
}

func TestExecuteWrongFreelancer(t *testing.T) {
	store := &fakeStore{app: pendingApplication()}
	handler := newTestHandler(t, store, &fakePurger{})

	_, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		FreelancerID:  "someone-else",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICATION_VALIDATION_FAILED")
	assert.Empty(t, store.statusUpdates)
}

func TestExecuteAlreadyTerminal(t *testing.T) {
	app := pendingApplication()
	app.Status = models.ApplicationStatusAccepted
	handler := newTestHandler(t, &fakeStore{app: app}, &fakePurger{})

	_, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		FreelancerID:  "freelancer-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_STATUS_TRANSITION")
}

func TestExecuteApplicationNotFound(t *testing.T) {
	handler := newTestHandler(t, &fakeStore{}, &fakePurger{})

	_, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "missing",
		FreelancerID:  "freelancer-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPLICATION_NOT_FOUND")
}

func TestExecutePurgeFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{app: pendingApplication()}
	purger := &fakePurger{err: fmt.Errorf("redis down")}
	handler := newTestHandler(t, store, purger)

	output, err := handler.Execute(context.Background(), &Input{
		ApplicationID: "app-1",
		FreelancerID:  "freelancer-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusWithdrawn, output.Status)
}
