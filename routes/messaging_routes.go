package routes

import (
	shared "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupMessagingRoutes sets up conversation and message routes
func SetupMessagingRoutes(r *gin.RouterGroup, conversationHandler *shared.ConversationHandler, messagingHandler *shared.MessagingHandler, jwtSecret string) {
	conversations := r.Group("/conversations")
	conversations.Use(middleware.AuthRequired(jwtSecret))
	{
		conversations.POST("/", conversationHandler.CreateConversation)
		conversations.GET("/", conversationHandler.ListConversations)
		conversations.PUT("/:id/mute", conversationHandler.MuteConversation)
		conversations.PUT("/:id/archive", conversationHandler.ArchiveConversation)

		conversations.GET("/:id/messages", messagingHandler.GetMessages)
		conversations.POST("/:id/messages", messagingHandler.SendMessage)
		conversations.POST("/:id/typing", messagingHandler.Typing)
		conversations.PUT("/:id/read", messagingHandler.MarkRead)
	}
}
