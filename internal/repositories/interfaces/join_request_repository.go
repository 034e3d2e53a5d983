package interfaces

import (
	"context"

	"tripmate/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JoinRequestRepository interface {
	Create(ctx context.Context, request *models.JoinRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.JoinRequest, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// HasPending reports whether a pending request already exists for the
	// (carpool, requester) pair.
	HasPending(ctx context.Context, carpoolID, requesterID primitive.ObjectID) (bool, error)

	// Approve transitions the request from pending to approved, decrements
	// the carpool's available seats and adds the requester to its
	// participants, all in one transaction. Fails if the request is no
	// longer pending or the carpool has no seats left.
	Approve(ctx context.Context, id primitive.ObjectID) error

	// Reject transitions the request from pending to rejected. Fails if the
	// request is no longer pending.
	Reject(ctx context.Context, id primitive.ObjectID) error

	GetByRequester(ctx context.Context, requesterID primitive.ObjectID) ([]*models.JoinRequest, error)
	GetPendingByDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.JoinRequest, error)
	GetPendingByCarpool(ctx context.Context, carpoolID primitive.ObjectID) ([]*models.JoinRequest, error)

	GetCarpool(ctx context.Context, id primitive.ObjectID) (*models.Carpool, error)
}
