// internal/workers/application/submit-application/handler.go
package submitapplication

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

const TaskType = "submit-application"

type Handler struct {
	config   *Config
	store    ApplicationStore
	cache    MirrorWriter
	notifier Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, store ApplicationStore, cache MirrorWriter, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := "APPLICATION_VALIDATION_FAILED"
		var stdErr *errors.StandardError
		if goerrors.As(err, &stdErr) {
			code = string(stdErr.Code)
		}
		h.failJob(client, job, code, err.Error())
		return nil
	}

	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.JobID == "" || input.FreelancerID == "" {
		return nil, errors.NewApplicationValidationFailedError("jobId and freelancerId are required")
	}
	if input.ProposedBudget < 0 {
		return nil, errors.NewApplicationValidationFailedError("proposedBudget must not be negative")
	}

	job, err := h.store.GetJob(ctx, input.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, errors.NewJobClosedError(job.ID, job.Status)
	}

	// Duplicate check is a pre-check only. Two submissions racing past it
	// both land; the server keeps no uniqueness constraint on the pair.
	exists, err := h.store.HasApplication(ctx, input.JobID, input.FreelancerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewDuplicateApplicationError(input.JobID, input.FreelancerID)
	}

	now := time.Now().UTC()
	app := &models.JobApplication{
		ID:              uuid.NewString(),
		JobID:           job.ID,
		FreelancerID:    input.FreelancerID,
		FreelancerName:  input.FreelancerName,
		FreelancerEmail: input.FreelancerEmail,
		CoverLetter:     input.CoverLetter,
		ProposedBudget:  input.ProposedBudget,
		Status:          models.ApplicationStatusPending,
		AppliedAt:       now,

		JobTitle:   job.Title,
		ClientName: job.ClientName,
		ClientID:   job.ClientID,

		FreelancerSkills: input.FreelancerSkills,
		FreelancerRating: input.FreelancerRating,
		CompletedJobs:    input.CompletedJobs,
	}

	if err := h.store.UpsertApplication(ctx, app); err != nil {
		return nil, err
	}

	// Queued unsynced; the reconciliation sweep confirms the push and
	// flips the flag. The remote upsert absorbs the replay.
	rec, err := mirror.NewRecord(mirror.KindApplication, app.ID, app.FreelancerID, app, false)
	if err == nil {
		err = h.cache.UpsertLocal(ctx, rec)
	}
	if err != nil {
		h.logger.Warn("application stored but not mirrored", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}

	h.notifier.SendPush(ctx, job.ClientID, "new_application",
		"New application",
		fmt.Sprintf("%s applied to %q", app.FreelancerName, job.Title))

	return &Output{
		ApplicationID: app.ID,
		Status:        app.Status,
		AppliedAt:     now.Format(time.RFC3339),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
