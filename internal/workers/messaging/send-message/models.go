// internal/workers/messaging/send-message/models.go
package sendmessage

import (
	"context"

	"marketplace-workers/internal/mirror"
	"marketplace-workers/internal/models"
)

type Input struct {
	SenderID    string `json:"senderId"`
	SenderName  string `json:"senderName"`
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

type Output struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	SentAt         string `json:"sentAt"`
}

// MessageWriter persists the message.
type MessageWriter interface {
	UpsertMessage(ctx context.Context, msg *models.Message) error
}

// MirrorWriter caches the message for both participants' chat screens.
type MirrorWriter interface {
	UpsertLocal(ctx context.Context, rec *mirror.Record) error
}

// Notifier alerts the recipient.
type Notifier interface {
	SendPush(ctx context.Context, userID, notifType, title, message string)
}
