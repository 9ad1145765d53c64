// internal/workers/application/decide-application/handler.go
package decideapplication

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
	"marketplace-workers/internal/models"
)

const TaskType = "decide-application"

type Handler struct {
	config   *Config
	store    DecisionStore
	index    IndexRemover
	notifier Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, store DecisionStore, index IndexRemover, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		store:    store,
		index:    index,
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
	if input.ApplicationID == "" {
		return nil, errors.NewApplicationValidationFailedError("applicationId is required")
	}
	if input.Decision != models.ApplicationStatusAccepted && input.Decision != models.ApplicationStatusRejected {
		return nil, errors.NewApplicationValidationFailedError(
			fmt.Sprintf("decision must be %q or %q", models.ApplicationStatusAccepted, models.ApplicationStatusRejected))
	}

	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if input.ClientID != "" && app.ClientID != input.ClientID {
		return nil, errors.NewApplicationValidationFailedError("only the job's client can decide an application")
	}
	if app.IsTerminal() {
		return nil, errors.NewInvalidStatusTransitionError(app.Status, input.Decision)
	}

	if err := h.store.UpdateApplicationStatus(ctx, app.ID, input.Decision); err != nil {
		return nil, err
	}

	output := &Output{
		ApplicationID: app.ID,
		Status:        input.Decision,
	}

	if input.Decision == models.ApplicationStatusAccepted {
		jobStatus, err := h.startJob(ctx, app.JobID)
		if err != nil {
			// The decision is already durable; the job status catch-up is
			// logged and left to the client's next edit.
			h.logger.Warn("application accepted but job status not updated", map[string]interface{}{
				"applicationId": app.ID,
				"jobId":         app.JobID,
				"error":         err.Error(),
			})
		} else {
			output.JobStatus = jobStatus
		}
	}

	h.notifyFreelancer(ctx, app, input.Decision)
	return output, nil
}

// startJob moves the job out of the open pool once a freelancer is chosen.
func (h *Handler) startJob(ctx context.Context, jobID string) (string, error) {
	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	job.Status = models.JobStatusInProgress
	if err := h.store.UpsertJob(ctx, job); err != nil {
		return "", err
	}

	// The job is no longer open, so it must stop surfacing in browse
	// results. A stale document self-heals on the next index write.
	if err := h.index.DeleteJob(ctx, job.ID); err != nil {
		h.logger.Warn("job started but still indexed", map[string]interface{}{
			"jobId": job.ID,
			"error": err.Error(),
		})
	}

	return job.Status, nil
}

func (h *Handler) notifyFreelancer(ctx context.Context, app *models.JobApplication, decision string) {
	var title, body string
	if decision == models.ApplicationStatusAccepted {
		title = "Application accepted"
		body = fmt.Sprintf("Your application for %q was accepted.", app.JobTitle)
	} else {
		title = "Application update"
		body = fmt.Sprintf("Your application for %q was not selected.", app.JobTitle)
	}

	h.notifier.SendPush(ctx, app.FreelancerID, "application_"+decision, title, body)
	if app.FreelancerEmail != "" {
		h.notifier.SendEmail(ctx, app.FreelancerEmail, title, body)
	}
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
