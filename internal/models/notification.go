package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeCarpool  NotificationType = "carpool"
	NotificationTypeTrip     NotificationType = "trip"
	NotificationTypeShopping NotificationType = "shopping"
	NotificationTypeSystem   NotificationType = "system"
)

// Notification is an append-only user-directed notice. After creation only
// the read flag and, for carpool notifications, the status mirror change.
type Notification struct {
	ID        primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID     `json:"user_id" bson:"user_id" validate:"required"`
	Type      NotificationType       `json:"type" bson:"type" validate:"required"`
	Title     string                 `json:"title" bson:"title" validate:"required"`
	Body      string                 `json:"body" bson:"body"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	Read      bool                   `json:"read" bson:"read"`
	ActionURL string                 `json:"action_url,omitempty" bson:"action_url,omitempty"`
	// Status mirrors the related join request for carpool notifications.
	Status    JoinRequestStatus `json:"status,omitempty" bson:"status,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	ReadAt    *time.Time        `json:"read_at,omitempty" bson:"read_at,omitempty"`
}
