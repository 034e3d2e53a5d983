package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// UserIdentity is the current-user identity supplied by the auth layer.
// Profiles themselves live outside this service.
type UserIdentity struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar"`
}
