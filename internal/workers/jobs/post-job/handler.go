// internal/workers/jobs/post-job/handler.go
package postjob

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
	"marketplace-workers/internal/common/metrics"
	"marketplace-workers/internal/common/validation"
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

const TaskType = "post-job"

const inputSchema = `{
	"type": "object",
	"required": ["clientId", "title", "category", "budget"],
	"properties": {
		"clientId": {"type": "string", "minLength": 1},
		"clientName": {"type": "string"},
		"title": {"type": "string", "minLength": 3},
		"description": {"type": "string"},
		"category": {"type": "string", "minLength": 1},
		"skills": {"type": "array", "items": {"type": "string"}},
		"budget": {"type": "number", "minimum": 0},
		"deadline": {"type": "string"},
		"location": {"type": "string"},
		"experienceLevel": {"type": "string"}
	}
}`

type Handler struct {
	config *Config
	store  JobWriter
	index  JobIndexer
	cache  MirrorWriter
	logger logger.Logger
}

func NewHandler(config *Config, store JobWriter, index JobIndexer, cache MirrorWriter, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		index:  index,
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
		code := "JOB_VALIDATION_FAILED"
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
	result, err := validation.ValidateStruct(input, inputSchema)
	if err != nil {
		return nil, errors.NewJobValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewJobValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	deadline, err := time.Parse(time.RFC3339, input.Deadline)
	if err != nil {
		return nil, errors.NewJobValidationFailedError(fmt.Sprintf("deadline must be RFC3339: %v", err))
	}

	now := time.Now().UTC()
	newJob := &models.Job{
		ID:          uuid.NewString(),
		ClientID:    input.ClientID,
		ClientName:  input.ClientName,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Skills:      input.Skills,
		Budget:      input.Budget,
		Deadline:    deadline,
		Location:    input.Location,
		Status:      models.JobStatusOpen,
		PostedAt:    now,
	}
	if input.ExperienceLevel != "" {
		level := input.ExperienceLevel
		newJob.ExperienceLevel = &level
	}

	if err := h.store.UpsertJob(ctx, newJob); err != nil {
		return nil, err
	}

	// Indexing and local caching trail the authoritative write; their
	// failures are logged, not surfaced.
	if err := h.index.IndexJob(ctx, newJob); err != nil {
		h.logger.Warn("job stored but not indexed", map[string]interface{}{
			"jobId": newJob.ID,
			"error": err.Error(),
		})
	}

	// Queued unsynced; the reconciliation sweep confirms the push and
	// flips the flag. The remote upsert absorbs the replay.
	rec, err := mirror.NewRecord(mirror.KindJob, newJob.ID, newJob.ClientID, newJob, false)
	if err == nil {
		err = h.cache.UpsertLocal(ctx, rec)
	}
	if err != nil {
		h.logger.Warn("job stored but not mirrored", map[string]interface{}{
			"jobId": newJob.ID,
			"error": err.Error(),
		})
	}

	return &Output{
		JobID:    newJob.ID,
		Status:   newJob.Status,
		PostedAt: now.Format(time.RFC3339),
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
