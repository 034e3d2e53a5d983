package validators

// SendMessageRequest is the REST body for posting a message to a
// conversation. Content may be empty for attachment messages; the service
// enforces the text rules.
type SendMessageRequest struct {
	Content        string `json:"content" validate:"max=1000"`
	Type           string `json:"type" validate:"omitempty,oneof=text image document"`
	AttachmentURL  string `json:"attachment_url" validate:"omitempty,url"`
	AttachmentName string `json:"attachment_name" validate:"omitempty,max=255"`
}

type CreateConversationRequest struct {
	TripID             string   `json:"trip_id" validate:"omitempty,object_id"`
	CarpoolID          string   `json:"carpool_id" validate:"omitempty,object_id"`
	TripName           string   `json:"trip_name" validate:"required,max=120"`
	Participants       []string `json:"participants" validate:"required,min=1,dive,object_id"`
	ParticipantNames   []string `json:"participant_names" validate:"required,min=1"`
	ParticipantAvatars []string `json:"participant_avatars" validate:"omitempty"`
}

type MuteConversationRequest struct {
	Muted bool `json:"muted"`
}

type ArchiveConversationRequest struct {
	Archived bool `json:"archived"`
}
