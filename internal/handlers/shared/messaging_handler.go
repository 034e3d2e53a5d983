package handlers

import (
	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"
	"tripmate/internal/validators"

	"github.com/gin-gonic/gin"
)

type MessagingHandler struct {
	messagingService services.MessagingService
}

func NewMessagingHandler(messagingService services.MessagingService) *MessagingHandler {
	return &MessagingHandler{
		messagingService: messagingService,
	}
}

// GetMessages returns the full ordered message log of a conversation.
func (h *MessagingHandler) GetMessages(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	messages, err := h.messagingService.GetMessages(c.Request.Context(), conversationID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "messages retrieved", messages, &utils.Meta{
		Count: len(messages),
	})
}

// SendMessage appends a message to the conversation. On failure the
// original content is echoed back so the client can restore its composer.
func (h *MessagingHandler) SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}
	if errs := validators.ValidateStruct(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	messageID, err := h.messagingService.SendMessage(c.Request.Context(), &services.SendMessageInput{
		ConversationID: conversationID,
		Sender:         user,
		Content:        req.Content,
		Type:           models.MessageType(req.Type),
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, "message sent", gin.H{
		"message_id": messageID.Hex(),
	})
}

// Typing signals composer activity; the typing flag clears on its own
// after the idle timeout.
func (h *MessagingHandler) Typing(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.messagingService.HandleInputChange(c.Request.Context(), conversationID, user.ID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "typing state updated", nil)
}

// MarkRead flips every unread message from other senders and zeroes the
// caller's unread counter.
func (h *MessagingHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	conversationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.messagingService.MarkConversationRead(c.Request.Context(), conversationID, user.ID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "conversation marked read", nil)
}
