package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is the per-group chat record. Summary fields (last message,
// unread counts, typing set) are denormalized onto the document so the
// conversation list can render without touching the messages collection.
type Conversation struct {
	ID                 primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	TripID             *primitive.ObjectID  `json:"trip_id,omitempty" bson:"trip_id,omitempty"`
	CarpoolID          *primitive.ObjectID  `json:"carpool_id,omitempty" bson:"carpool_id,omitempty"`
	TripName           string               `json:"trip_name" bson:"trip_name"`
	Participants       []primitive.ObjectID `json:"participants" bson:"participants" validate:"required"`
	ParticipantNames   []string             `json:"participant_names" bson:"participant_names"`
	ParticipantAvatars []string             `json:"participant_avatars" bson:"participant_avatars"`
	LastMessage        string               `json:"last_message" bson:"last_message"`
	LastMessageTime    time.Time            `json:"last_message_time" bson:"last_message_time"`
	UnreadCounts       map[string]int       `json:"unread_counts" bson:"unread_counts"`
	MutedBy            []primitive.ObjectID `json:"muted_by" bson:"muted_by"`
	ArchivedBy         []primitive.ObjectID `json:"archived_by" bson:"archived_by"`
	Typing             []primitive.ObjectID `json:"typing" bson:"typing"`
	CreatedAt          time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at" bson:"updated_at"`
}

// ConversationSummary is a conversation projected for one viewer: unread
// count, muted and archived come from the per-user maps rather than shared
// fields.
type ConversationSummary struct {
	ID               primitive.ObjectID   `json:"id"`
	TripID           *primitive.ObjectID  `json:"trip_id,omitempty"`
	CarpoolID        *primitive.ObjectID  `json:"carpool_id,omitempty"`
	TripName         string               `json:"trip_name"`
	Participants     []primitive.ObjectID `json:"participants"`
	ParticipantNames []string             `json:"participant_names"`
	LastMessage      string               `json:"last_message"`
	LastMessageTime  time.Time            `json:"last_message_time"`
	UnreadCount      int                  `json:"unread_count"`
	Muted            bool                 `json:"muted"`
	Archived         bool                 `json:"archived"`
	Typing           []primitive.ObjectID `json:"typing"`
}

func (c *Conversation) HasParticipant(userID primitive.ObjectID) bool {
	return containsID(c.Participants, userID)
}

// UnreadFor returns the viewer's unread count. Entries only exist for
// current participants.
func (c *Conversation) UnreadFor(userID primitive.ObjectID) int {
	return c.UnreadCounts[userID.Hex()]
}

func (c *Conversation) IsMutedBy(userID primitive.ObjectID) bool {
	return containsID(c.MutedBy, userID)
}

func (c *Conversation) IsArchivedBy(userID primitive.ObjectID) bool {
	return containsID(c.ArchivedBy, userID)
}

// SummaryFor projects the conversation into the view a single participant
// sees. The viewer is excluded from the typing set.
func (c *Conversation) SummaryFor(userID primitive.ObjectID) *ConversationSummary {
	typing := make([]primitive.ObjectID, 0, len(c.Typing))
	for _, id := range c.Typing {
		if id != userID {
			typing = append(typing, id)
		}
	}

	return &ConversationSummary{
		ID:               c.ID,
		TripID:           c.TripID,
		CarpoolID:        c.CarpoolID,
		TripName:         c.TripName,
		Participants:     c.Participants,
		ParticipantNames: c.ParticipantNames,
		LastMessage:      c.LastMessage,
		LastMessageTime:  c.LastMessageTime,
		UnreadCount:      c.UnreadFor(userID),
		Muted:            c.IsMutedBy(userID),
		Archived:         c.IsArchivedBy(userID),
		Typing:           typing,
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
