package routes

import (
	shared "tripmate/internal/handlers/shared"
	"tripmate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupJoinRequestRoutes sets up routes for the carpool join workflow
func SetupJoinRequestRoutes(r *gin.RouterGroup, joinRequestHandler *shared.JoinRequestHandler, jwtSecret string) {
	requests := r.Group("/join-requests")
	requests.Use(middleware.AuthRequired(jwtSecret))
	{
		requests.POST("/", joinRequestHandler.CreateJoinRequest)
		requests.GET("/mine", joinRequestHandler.ListMyJoinRequests)
		requests.GET("/incoming", joinRequestHandler.ListIncomingJoinRequests)
		requests.PUT("/:id/approve", joinRequestHandler.ApproveJoinRequest)
		requests.PUT("/:id/reject", joinRequestHandler.RejectJoinRequest)
		requests.DELETE("/:id", joinRequestHandler.CancelJoinRequest)
	}

	carpools := r.Group("/carpools")
	carpools.Use(middleware.AuthRequired(jwtSecret))
	{
		carpools.GET("/:id/requests", joinRequestHandler.ListCarpoolJoinRequests)
	}
}
