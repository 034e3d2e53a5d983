package handlers

import (
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

// CreateConversation opens a conversation for a trip or carpool group.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	var req validators.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}
	if errs := validators.ValidateStruct(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	input := &services.CreateConversationInput{
		TripName:           req.TripName,
		ParticipantNames:   req.ParticipantNames,
		ParticipantAvatars: req.ParticipantAvatars,
	}

	if req.TripID != "" {
		tripID, _ := primitive.ObjectIDFromHex(req.TripID)
		input.TripID = &tripID
	}
	if req.CarpoolID != "" {
		carpoolID, _ := primitive.ObjectIDFromHex(req.CarpoolID)
		input.CarpoolID = &carpoolID
	}

	seen := false
	for _, hex := range req.Participants {
		participantID, _ := primitive.ObjectIDFromHex(hex)
		if participantID == user.ID {
			seen = true
		}
		input.Participants = append(input.Participants, participantID)
	}
	// The creator always belongs to the conversation.
	if !seen {
		input.Participants = append(input.Participants, user.ID)
	}

	conversationID, err := h.conversationService.CreateConversation(c.Request.Context(), input)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "conversation created", gin.H{
		"conversation_id": conversationID.Hex(),
	})
}

// ListConversations returns the caller's conversations, newest activity
// first. An optional q parameter filters by trip name, participant name
// or last message text.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	summaries, err := h.conversationService.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	if query := c.Query("q"); query != "" {
		summaries = services.SearchConversations(summaries, query)
	}

	utils.SuccessResponseWithMeta(c, "conversations retrieved", summaries, &utils.Meta{
		Count: len(summaries),
	})
}

func (h *ConversationHandler) MuteConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.MuteConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}

	if err := h.conversationService.SetMuted(c.Request.Context(), conversationID, user.ID, req.Muted); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "mute state updated", gin.H{"muted": req.Muted})
}

func (h *ConversationHandler) ArchiveConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.ArchiveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}

	if err := h.conversationService.SetArchived(c.Request.Context(), conversationID, user.ID, req.Archived); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "archive state updated", gin.H{"archived": req.Archived})
}
