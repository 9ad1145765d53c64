// internal/workers/application/withdraw-application/handler.go
package withdrawapplication

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

const TaskType = "withdraw-application"

type Handler struct {
	config *Config
	store  WithdrawalStore
	cache  MirrorPurger
	logger logger.Logger
}

func NewHandler(config *Config, store WithdrawalStore, cache MirrorPurger, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if input.ApplicationID == "" || input.FreelancerID == "" {
		return nil, errors.NewApplicationValidationFailedError("applicationId and freelancerId are required")
	}

	app, err := h.store.GetApplication(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if app.FreelancerID != input.FreelancerID {
		return nil, errors.NewApplicationValidationFailedError("only the applicant can withdraw an application")
	}
	if app.IsTerminal() {
		return nil, errors.NewInvalidStatusTransitionError(app.Status, models.ApplicationStatusWithdrawn)
	}

	if err := h.store.UpdateApplicationStatus(ctx, app.ID, models.ApplicationStatusWithdrawn); err != nil {
		return nil, err
	}

	// Purge the local copy so the withdrawn application disappears from
	// the freelancer's cached list. The purge never cascades upstream.
	if err := h.cache.Delete(ctx, app.ID); err != nil {
		h.logger.Warn("application withdrawn but local copy not purged", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err.Error(),
		})
	}

	return &Output{
		ApplicationID: app.ID,
		Status:        models.ApplicationStatusWithdrawn,
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
