// internal/workers/auth/signin-google/handler.go
package signingoogle

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
	"marketplace-workers/internal/models"
)

const TaskType = "signin-google"

type Handler struct {
	config   *Config
	verifier TokenVerifier
	users    UserStore
	logger   logger.Logger
}

func NewHandler(config *Config, verifier TokenVerifier, users UserStore, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		verifier: verifier,
		users:    users,
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
		code := "TOKEN_VERIFICATION_FAILED"
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
	claims, err := h.verifier.Verify(ctx, input.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := h.users.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		// Returning account. Attach the Google identity if the account
		// predates SSO.
		if user.ProviderID == "" {
			user.Provider = models.ProviderGoogle
			user.ProviderID = claims.Subject
			if upErr := h.users.UpsertUser(ctx, user); upErr != nil {
				h.logger.Warn("signed in but provider link not saved", map[string]interface{}{
					"userId": user.ID,
					"error":  upErr.Error(),
				})
			}
		}
		return &Output{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
		}, nil
	}

	var stdErr *errors.StandardError
	if !goerrors.As(err, &stdErr) || stdErr.Code != "RESOURCE_NOT_FOUND" {
		return nil, err
	}

	role := input.Role
	if role != models.RoleClient && role != models.RoleFreelancer {
		role = h.config.DefaultRole
	}

	newUser := &models.User{
		ID:            uuid.NewString(),
		Email:         claims.Email,
		Name:          claims.Name,
		Role:          role,
		Provider:      models.ProviderGoogle,
		ProviderID:    claims.Subject,
		EmailVerified: claims.EmailVerified,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.users.UpsertUser(ctx, newUser); err != nil {
		return nil, err
	}

	return &Output{
		UserID:    newUser.ID,
		Email:     newUser.Email,
		Name:      newUser.Name,
		Role:      newUser.Role,
		IsNewUser: true,
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
