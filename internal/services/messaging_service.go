package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageSnapshotFunc receives the full ordered message list of a
// conversation, re-delivered on every change.
type MessageSnapshotFunc func(messages []*models.Message)

type SendMessageInput struct {
	ConversationID primitive.ObjectID
	Sender         models.UserIdentity
	Content        string
	Type           models.MessageType
	AttachmentURL  string
	AttachmentName string
}

type MessagingService interface {
	// SendMessage appends a message to the conversation's log and updates
	// the conversation summary. Store failures surface to the caller so it
	// can restore the composer content.
	SendMessage(ctx context.Context, input *SendMessageInput) (primitive.ObjectID, error)

	// HandleInputChange marks the user as typing and (re)starts the idle
	// timer; typing flips back off after the idle timeout with no further
	// input, on send, or on ClearTyping.
	HandleInputChange(ctx context.Context, conversationID, userID primitive.ObjectID) error

	// ClearTyping cancels any pending idle timer and unconditionally clears
	// the typing flag. Called on screen teardown and disconnect.
	ClearTyping(ctx context.Context, conversationID, userID primitive.ObjectID) error

	// MarkConversationRead applies the batched read-receipt update for the
	// user. Idempotent.
	MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error

	GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]*models.Message, error)

	// Subscribe opens a live view of the conversation: the current ordered
	// message list is delivered immediately, then again after every change,
	// until Unsubscribe is called or ctx is cancelled.
	Subscribe(ctx context.Context, conversationID primitive.ObjectID, onUpdate MessageSnapshotFunc) (string, error)
	Unsubscribe(subscriptionID string)

	// Shutdown cancels all live subscriptions and pending typing timers.
	Shutdown()
}

type messagingService struct {
	conversationRepo interfaces.ConversationRepository
	logger           *logger.Logger
	tracker          *typingTracker
	typingIdle       time.Duration

	mu            sync.Mutex
	subscriptions map[string]context.CancelFunc
}

func NewMessagingService(conversationRepo interfaces.ConversationRepository, log *logger.Logger, typingIdle time.Duration) MessagingService {
	if typingIdle <= 0 {
		typingIdle = utils.TypingIdleTimeout
	}

	return &messagingService{
		conversationRepo: conversationRepo,
		logger:           log,
		tracker:          newTypingTracker(),
		typingIdle:       typingIdle,
		subscriptions:    make(map[string]context.CancelFunc),
	}
}

func (s *messagingService) SendMessage(ctx context.Context, input *SendMessageInput) (primitive.ObjectID, error) {
	messageType := input.Type
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	if messageType == models.MessageTypeText && strings.TrimSpace(input.Content) == "" {
		return primitive.NilObjectID, ErrEmptyMessage
	}
	if len(input.Content) > utils.MaxMessageLength {
		return primitive.NilObjectID, ErrMessageTooLong
	}

	conversation, err := s.conversationRepo.GetConversationByID(ctx, input.ConversationID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to load conversation: %w", err)
	}
	if !conversation.HasParticipant(input.Sender.ID) {
		return primitive.NilObjectID, ErrNotParticipant
	}

	message := &models.Message{
		ConversationID: input.ConversationID,
		SenderID:       input.Sender.ID,
		SenderName:     input.Sender.Name,
		SenderAvatar:   input.Sender.Avatar,
		Type:           messageType,
		Content:        input.Content,
		AttachmentURL:  input.AttachmentURL,
		AttachmentName: input.AttachmentName,
		Read:           false,
		ReadBy:         []primitive.ObjectID{input.Sender.ID},
	}

	if err := s.conversationRepo.CreateMessage(ctx, message); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to send message: %w", err)
	}

	// Sending ends the composing session regardless of composer state.
	s.tracker.Cancel(typingKey(input.ConversationID, input.Sender.ID))
	if err := s.conversationRepo.SetTyping(ctx, input.ConversationID, input.Sender.ID, false); err != nil {
		s.logger.WithError(err).WithConversationID(input.ConversationID).Warn("failed to clear typing state after send")
	}

	return message.ID, nil
}

func (s *messagingService) HandleInputChange(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	if err := s.conversationRepo.SetTyping(ctx, conversationID, userID, true); err != nil {
		return fmt.Errorf("failed to set typing state: %w", err)
	}

	s.tracker.Touch(typingKey(conversationID, userID), s.typingIdle, func() {
		expireCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.conversationRepo.SetTyping(expireCtx, conversationID, userID, false); err != nil {
			s.logger.WithError(err).WithConversationID(conversationID).Warn("failed to clear typing state on idle")
		}
	})

	return nil
}

func (s *messagingService) ClearTyping(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	s.tracker.Cancel(typingKey(conversationID, userID))

	if err := s.conversationRepo.SetTyping(ctx, conversationID, userID, false); err != nil {
		return fmt.Errorf("failed to clear typing state: %w", err)
	}
	return nil
}

func (s *messagingService) MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	if err := s.conversationRepo.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

func (s *messagingService) GetMessages(ctx context.Context, conversationID primitive.ObjectID) ([]*models.Message, error) {
	messages, err := s.conversationRepo.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (s *messagingService) Subscribe(ctx context.Context, conversationID primitive.ObjectID, onUpdate MessageSnapshotFunc) (string, error) {
	subCtx, cancel := context.WithCancel(ctx)

	ticks, err := s.conversationRepo.WatchMessages(subCtx, conversationID)
	if err != nil {
		cancel()
		return "", fmt.Errorf("failed to watch conversation: %w", err)
	}

	subscriptionID := uuid.NewString()
	s.mu.Lock()
	s.subscriptions[subscriptionID] = cancel
	s.mu.Unlock()

	// Initial snapshot before any change arrives.
	s.deliverSnapshot(subCtx, conversationID, onUpdate)

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.subscriptions, subscriptionID)
			s.mu.Unlock()
			cancel()
		}()

		for range ticks {
			s.deliverSnapshot(subCtx, conversationID, onUpdate)
		}
	}()

	return subscriptionID, nil
}

func (s *messagingService) Unsubscribe(subscriptionID string) {
	s.mu.Lock()
	cancel, ok := s.subscriptions[subscriptionID]
	if ok {
		delete(s.subscriptions, subscriptionID)
	}
	s.mu.Unlock()

	if ok {
		cancel()
	}
}

func (s *messagingService) Shutdown() {
	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.subscriptions))
	for id, cancel := range s.subscriptions {
		cancels = append(cancels, cancel)
		delete(s.subscriptions, id)
	}
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}

	s.tracker.CancelAll()
}

func (s *messagingService) deliverSnapshot(ctx context.Context, conversationID primitive.ObjectID, onUpdate MessageSnapshotFunc) {
	if ctx.Err() != nil {
		return
	}

	messages, err := s.conversationRepo.GetMessages(ctx, conversationID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WithError(err).WithConversationID(conversationID).Warn("failed to load message snapshot")
		}
		return
	}

	onUpdate(messages)
}

func typingKey(conversationID, userID primitive.ObjectID) string {
	return conversationID.Hex() + ":" + userID.Hex()
}
