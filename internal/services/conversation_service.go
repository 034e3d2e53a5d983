package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateConversationInput struct {
	TripID             *primitive.ObjectID
	CarpoolID          *primitive.ObjectID
	TripName           string
	Participants       []primitive.ObjectID
	ParticipantNames   []string
	ParticipantAvatars []string
}

type ConversationService interface {
	CreateConversation(ctx context.Context, input *CreateConversationInput) (primitive.ObjectID, error)

	// ListForUser returns the user's conversations sorted by last message
	// time descending, each projected onto the viewer's own unread count
	// and mute/archive flags.
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.ConversationSummary, error)

	SetMuted(ctx context.Context, conversationID, userID primitive.ObjectID, muted bool) error
	SetArchived(ctx context.Context, conversationID, userID primitive.ObjectID, archived bool) error
}

type conversationService struct {
	conversationRepo interfaces.ConversationRepository
	logger           *logger.Logger
}

func NewConversationService(conversationRepo interfaces.ConversationRepository, log *logger.Logger) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		logger:           log,
	}
}

func (s *conversationService) CreateConversation(ctx context.Context, input *CreateConversationInput) (primitive.ObjectID, error) {
	if len(input.Participants) == 0 {
		return primitive.NilObjectID, fmt.Errorf("conversation requires at least one participant")
	}

	unreadCounts := make(map[string]int, len(input.Participants))
	for _, participant := range input.Participants {
		unreadCounts[participant.Hex()] = 0
	}

	conversation := &models.Conversation{
		TripID:             input.TripID,
		CarpoolID:          input.CarpoolID,
		TripName:           input.TripName,
		Participants:       input.Participants,
		ParticipantNames:   input.ParticipantNames,
		ParticipantAvatars: input.ParticipantAvatars,
		LastMessageTime:    time.Now(),
		UnreadCounts:       unreadCounts,
		MutedBy:            []primitive.ObjectID{},
		ArchivedBy:         []primitive.ObjectID{},
		Typing:             []primitive.ObjectID{},
	}

	if err := s.conversationRepo.CreateConversation(ctx, conversation); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conversation.ID, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.ConversationSummary, error) {
	conversations, err := s.conversationRepo.GetConversationsByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]*models.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summaries = append(summaries, conversation.SummaryFor(userID))
	}

	return summaries, nil
}

func (s *conversationService) SetMuted(ctx context.Context, conversationID, userID primitive.ObjectID, muted bool) error {
	if err := s.conversationRepo.SetMuted(ctx, conversationID, userID, muted); err != nil {
		return fmt.Errorf("failed to update mute flag: %w", err)
	}
	return nil
}

func (s *conversationService) SetArchived(ctx context.Context, conversationID, userID primitive.ObjectID, archived bool) error {
	if err := s.conversationRepo.SetArchived(ctx, conversationID, userID, archived); err != nil {
		return fmt.Errorf("failed to update archive flag: %w", err)
	}
	return nil
}

// SearchConversations is a pure filter over an already-fetched list:
// case-insensitive substring match on participant names, last message text
// and trip name. No store round-trip.
func SearchConversations(conversations []*models.ConversationSummary, query string) []*models.ConversationSummary {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return conversations
	}

	matches := make([]*models.ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		if conversationMatches(conversation, query) {
			matches = append(matches, conversation)
		}
	}

	return matches
}

func conversationMatches(conversation *models.ConversationSummary, query string) bool {
	if strings.Contains(strings.ToLower(conversation.TripName), query) {
		return true
	}
	if strings.Contains(strings.ToLower(conversation.LastMessage), query) {
		return true
	}
	for _, name := range conversation.ParticipantNames {
		if strings.Contains(strings.ToLower(name), query) {
			return true
		}
	}
	return false
}
