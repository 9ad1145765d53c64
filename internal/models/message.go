// internal/models/message.go
package models

import "time"

// Message is a chat message between a client and a freelancer. The
// conversation id is derived by the mobile client from the two participant
// ids and is treated as opaque here.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	RecipientID    string    `json:"recipientId"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sentAt"`
	Read           bool      `json:"read"`
}
