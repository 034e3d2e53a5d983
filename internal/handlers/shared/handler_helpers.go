package handlers

import (
	"errors"
	"strings"

	"tripmate/internal/models"
	"tripmate/internal/services"
	"tripmate/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUser reads the authenticated identity placed on the context by
// the auth middleware.
func currentUser(c *gin.Context) (models.UserIdentity, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return models.UserIdentity{}, false
	}

	userID, ok := value.(primitive.ObjectID)
	if !ok {
		return models.UserIdentity{}, false
	}

	return models.UserIdentity{
		ID:     userID,
		Name:   c.GetString("user_name"),
		Avatar: c.GetString("user_avatar"),
	}, true
}

func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

// domainErrorResponse maps service errors onto HTTP responses. Unknown
// errors become a 500 with no detail leaked.
func domainErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrJoinMessageTooLong):
		utils.BadRequestResponse(c, err.Error())

	case errors.Is(err, services.ErrDuplicateJoinRequest),
		errors.Is(err, services.ErrRequestAlreadyDecided),
		errors.Is(err, services.ErrRequestNotPending),
		errors.Is(err, services.ErrNoSeatsAvailable):
		utils.ConflictResponse(c, err.Error())

	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotCarpoolDriver):
		utils.ForbiddenResponse(c)

	case strings.Contains(err.Error(), "not found"):
		utils.NotFoundResponse(c, utils.ErrNotFound)

	default:
		utils.InternalServerErrorResponse(c)
	}
}
