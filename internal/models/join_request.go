package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JoinRequestStatus string

const (
	JoinRequestStatusPending  JoinRequestStatus = "pending"
	JoinRequestStatusApproved JoinRequestStatus = "approved"
	JoinRequestStatusRejected JoinRequestStatus = "rejected"
)

// JoinRequest asks a carpool's driver for a seat. Transitions are one-way:
// pending to approved or rejected, terminal once decided. At most one
// pending request may exist per (carpool, requester) pair.
type JoinRequest struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CarpoolID     primitive.ObjectID `json:"carpool_id" bson:"carpool_id" validate:"required"`
	TripID        primitive.ObjectID `json:"trip_id" bson:"trip_id" validate:"required"`
	RequesterID   primitive.ObjectID `json:"requester_id" bson:"requester_id" validate:"required"`
	RequesterName string             `json:"requester_name" bson:"requester_name"`
	DriverID      primitive.ObjectID `json:"driver_id" bson:"driver_id" validate:"required"`
	Message       string             `json:"message" bson:"message" validate:"max=200"`
	Status        JoinRequestStatus  `json:"status" bson:"status" default:"pending"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	RespondedAt   *time.Time         `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
}

func (r *JoinRequest) IsPending() bool {
	return r.Status == JoinRequestStatusPending
}
