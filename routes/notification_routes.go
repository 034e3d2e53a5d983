package routes

import (
	shared "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupNotificationRoutes sets up routes for the notification center
func SetupNotificationRoutes(r *gin.RouterGroup, notificationHandler *shared.NotificationHandler, jwtSecret string) {
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthRequired(jwtSecret))
	{
		notifications.GET("/", notificationHandler.ListNotifications)
		notifications.GET("/unread-count", notificationHandler.CountUnread)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
		notifications.PUT("/:id/status", notificationHandler.UpdateStatus)
		notifications.PUT("/read-all", notificationHandler.MarkAllRead)
		notifications.DELETE("/:id", notificationHandler.DeleteNotification)
	}
}
