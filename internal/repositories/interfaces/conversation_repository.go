package interfaces

import (
	"context"

	"tripmate/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationRepository interface {
	// Conversation CRUD operations
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	GetConversationsByParticipant(ctx context.Context, participantID primitive.ObjectID) ([]*models.Conversation, error)

	// Per-viewer flags and typing set
	SetMuted(ctx context.Context, conversationID, userID primitive.ObjectID, muted bool) error
	SetArchived(ctx context.Context, conversationID, userID primitive.ObjectID, archived bool) error
	SetTyping(ctx context.Context, conversationID, userID primitive.ObjectID, typing bool) error

	// Message log
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]*models.Message, error)

	// MarkConversationRead flips read state on every unread message not sent
	// by userID and zeroes the user's unread count, as one atomic batch.
	MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error

	// WatchMessages emits a tick whenever the conversation's message log
	// changes. The channel closes when ctx is cancelled or the underlying
	// stream drops; consumers re-subscribe on close.
	WatchMessages(ctx context.Context, conversationID primitive.ObjectID) (<-chan struct{}, error)
}
