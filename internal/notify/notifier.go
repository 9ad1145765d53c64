// internal/notify/notifier.go
package notify

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"marketplace-workers/internal/common/errors"
	"marketplace-workers/internal/common/logger"
)

// EmailSender matches the SES wrapper's send operation.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// PushPublisher matches the SNS wrapper's publish operation.
type PushPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Config controls which channels are active.
type Config struct {
	EmailEnabled bool
	FromEmail    string
	PushEnabled  bool
	TopicARN     string
}

// Notifier fans user-facing notifications out to email and push. Sends
// are best effort: a channel failure is logged and counted, never
// returned, because notifications must not fail the business operation
// that triggered them.
type Notifier struct {
	email EmailSender
	push  PushPublisher
	cfg   Config
	log   logger.Logger
}

func NewNotifier(email EmailSender, push PushPublisher, cfg Config, log logger.Logger) *Notifier {
	return &Notifier{email: email, push: push, cfg: cfg, log: log}
}

// pushPayload is the message envelope published to SNS. The mobile apps
// route on userId and type.
type pushPayload struct {
	UserID  string `json:"userId"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SendEmail delivers a plain-text email through SES.
func (n *Notifier) SendEmail(ctx context.Context, to, subject, body string) {
	if !n.cfg.EmailEnabled || n.email == nil {
		return
	}

	input := &ses.SendEmailInput{
		Source: aws.String(n.cfg.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.email.SendEmail(ctx, input); err != nil {
		stdErr := errors.NewNotificationSendFailedError("email", err)
		n.log.Warn("email notification dropped", map[string]interface{}{
			"to":    to,
			"error": stdErr.Error(),
		})
	}
}

// SendPush publishes a push notification to the SNS topic.
func (n *Notifier) SendPush(ctx context.Context, userID, notifType, title, message string) {
	if !n.cfg.PushEnabled || n.push == nil {
		return
	}

	payload, err := json.Marshal(pushPayload{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	})
	if err != nil {
		n.log.Warn("push notification dropped", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return
	}

	input := &sns.PublishInput{
		TopicArn: aws.String(n.cfg.TopicARN),
		Message:  aws.String(string(payload)),
	}

	if _, err := n.push.Publish(ctx, input); err != nil {
		stdErr := errors.NewNotificationSendFailedError("push", err)
		n.log.Warn("push notification dropped", map[string]interface{}{
			"userId": userID,
			"error":  stdErr.Error(),
		})
	}
}
