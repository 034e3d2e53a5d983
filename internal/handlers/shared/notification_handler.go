package handlers

import (
	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications returns the caller's notifications, newest first,
// paginated.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.ListForUser(c.Request.Context(), user.ID, params)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "notifications retrieved", notifications, &utils.Meta{
		Pagination: utils.NewPaginationMeta(params, total),
		Total:      total,
		Count:      len(notifications),
	})
}

func (h *NotificationHandler) CountUnread(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	count, err := h.notificationService.CountUnread(c.Request.Context(), user.ID)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "unread count retrieved", gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	notificationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), notificationID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "notification marked read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "notifications marked read", nil)
}

// UpdateStatus mirrors a join-request decision onto the carpool
// notification card, so the requires-action state clears on every device.
func (h *NotificationHandler) UpdateStatus(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	notificationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status models.JoinRequestStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, utils.ErrInvalidInput)
		return
	}
	switch req.Status {
	case models.JoinRequestStatusApproved, models.JoinRequestStatusRejected:
	default:
		utils.BadRequestResponse(c, "status must be approved or rejected")
		return
	}

	if err := h.notificationService.UpdateStatus(c.Request.Context(), notificationID, req.Status); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "notification status updated", gin.H{"status": req.Status})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	notificationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), notificationID); err != nil {
		domainErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, "notification deleted", nil)
}
