package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
)

// Message is one entry in a conversation's ordered log. Sender name and
// avatar are captured at send time, not live-joined against the profile.
type Message struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID   `json:"conversation_id" bson:"conversation_id" validate:"required"`
	SenderID       primitive.ObjectID   `json:"sender_id" bson:"sender_id" validate:"required"`
	SenderName     string               `json:"sender_name" bson:"sender_name"`
	SenderAvatar   string               `json:"sender_avatar" bson:"sender_avatar"`
	Type           MessageType          `json:"type" bson:"type" default:"text"`
	Content        string               `json:"content" bson:"content"`
	AttachmentURL  string               `json:"attachment_url,omitempty" bson:"attachment_url,omitempty"`
	AttachmentName string               `json:"attachment_name,omitempty" bson:"attachment_name,omitempty"`
	Timestamp      time.Time            `json:"timestamp" bson:"timestamp"`
	Read           bool                 `json:"read" bson:"read"`
	ReadBy         []primitive.ObjectID `json:"read_by" bson:"read_by"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// PreviewText is what the conversation list shows as the last message:
// the content for text messages, a generic label for attachments.
func (m *Message) PreviewText() string {
	switch m.Type {
	case MessageTypeImage:
		return "Sent an image"
	case MessageTypeDocument:
		return "Sent a document"
	default:
		return m.Content
	}
}

// WasReadBy reports whether userID has observed the message. The sender
// always has.
func (m *Message) WasReadBy(userID primitive.ObjectID) bool {
	return containsID(m.ReadBy, userID)
}
