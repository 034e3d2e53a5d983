package utils

import "time"

// Application Constants
const (
	AppName    = "TripMate"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Messaging
	MaxMessageLength  = 1000
	TypingIdleTimeout = 3 * time.Second

	// Join requests
	MaxJoinRequestMessageLength = 200
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidToken         = "invalid token"
	ErrTokenExpired         = "token expired"
	ErrInvalidInput         = "invalid input"
	ErrInternalServer       = "internal server error"
	ErrUnauthorized         = "unauthorized"
	ErrForbidden            = "forbidden"
	ErrNotFound             = "not found"
	ErrConflict             = "conflict"
	ErrValidationFailed     = "validation failed"
	ErrConversationNotFound = "conversation not found"
	ErrCarpoolNotFound      = "carpool not found"
	ErrRequestNotFound      = "join request not found"
)

// Cache Keys
const (
	CacheConversationPrefix = "conversation:"
	CacheCarpoolPrefix      = "carpool:"
	CacheRateLimitPrefix    = "rate_limit:"
)

// Event Types pushed over the websocket
const (
	EventMessageSnapshot     = "message_snapshot"
	EventConversationUpdated = "conversation_updated"
	EventNotificationCreated = "notification_created"
	EventTypingChanged       = "typing_changed"
)
