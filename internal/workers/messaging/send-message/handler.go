// internal/workers/messaging/send-message/handler.go
package sendmessage

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
	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

const TaskType = "send-message"

type Handler struct {
	config   *Config
	store    MessageWriter
	cache    MirrorWriter
	notifier Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, store MessageWriter, cache MirrorWriter, notifier Notifier, log logger.Logger) *Handler {
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
	if input.SenderID == "" || input.RecipientID == "" {
		return nil, errors.NewBusinessRuleError("senderId and recipientId are required", "message rejected")
	}
	if input.SenderID == input.RecipientID {
		return nil, errors.NewBusinessRuleError("sender and recipient must differ", "message rejected")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, errors.NewBusinessRuleError("message body is empty", "message rejected")
	}
	if len(body) > h.config.MaxBodyLength {
		return nil, errors.NewBusinessRuleError(
			fmt.Sprintf("message body exceeds %d characters", h.config.MaxBodyLength), "message rejected")
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID(input.SenderID, input.RecipientID),
		SenderID:       input.SenderID,
		SenderName:     input.SenderName,
		RecipientID:    input.RecipientID,
		Body:           body,
		SentAt:         now,
		Read:           false,
	}

	if err := h.store.UpsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	// One record per participant so both conversation views cache the
	// message and their live queries fire. Queued unsynced; the sweep
	// confirms each copy and the remote upsert absorbs the replays.
	for _, ownerID := range []string{msg.RecipientID, msg.SenderID} {
		rec, err := mirror.NewRecord(mirror.KindMessage, msg.ID+":"+ownerID, ownerID, msg, false)
		if err == nil {
			err = h.cache.UpsertLocal(ctx, rec)
		}
		if err != nil {
			h.logger.Warn("message stored but not mirrored", map[string]interface{}{
				"messageId": msg.ID,
				"ownerId":   ownerID,
				"error":     err.Error(),
			})
		}
	}

	h.notifier.SendPush(ctx, msg.RecipientID, "new_message",
		"New message",
		fmt.Sprintf("%s sent you a message", msg.SenderName))

	return &Output{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SentAt:         now.Format(time.RFC3339),
	}, nil
}

// conversationID derives a stable id from the two participants so both
// sides address the same thread regardless of who writes first.
func conversationID(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
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
