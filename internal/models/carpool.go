package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Carpool is the shared-capacity record a join request mutates on approval:
// seat decrement and participant add happen in the same transaction as the
// status flip, so available seats can never go below zero.
type Carpool struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	TripID         primitive.ObjectID   `json:"trip_id" bson:"trip_id" validate:"required"`
	DriverID       primitive.ObjectID   `json:"driver_id" bson:"driver_id" validate:"required"`
	DriverName     string               `json:"driver_name" bson:"driver_name"`
	Origin         string               `json:"origin" bson:"origin"`
	Destination    string               `json:"destination" bson:"destination"`
	DepartureTime  time.Time            `json:"departure_time" bson:"departure_time"`
	TotalSeats     int                  `json:"total_seats" bson:"total_seats" validate:"min=1"`
	AvailableSeats int                  `json:"available_seats" bson:"available_seats"`
	Participants   []primitive.ObjectID `json:"participants" bson:"participants"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

func (c *Carpool) HasSeats() bool {
	return c.AvailableSeats > 0
}

func (c *Carpool) HasParticipant(userID primitive.ObjectID) bool {
	return containsID(c.Participants, userID)
}
