package interfaces

import (
	"context"

	"tripmate/internal/models"
	"tripmate/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error)

	MarkAsRead(ctx context.Context, id primitive.ObjectID) error
	// MarkAllAsRead flips every unread notification for the user in a
	// single batched write.
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error

	// UpdateStatus mirrors the related join request's status onto a
	// carpool notification.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.JoinRequestStatus) error

	Delete(ctx context.Context, id primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
