package services

import "errors"

// Domain errors surfaced to callers. Validation errors are returned before
// any store write; store failures are wrapped with %w instead.
var (
	ErrEmptyMessage       = errors.New("message content cannot be empty")
	ErrMessageTooLong     = errors.New("message content is too long")
	ErrNotParticipant     = errors.New("user is not a participant of this conversation")
	ErrJoinMessageTooLong = errors.New("join request message exceeds 200 characters")
	// ErrDuplicateJoinRequest rejects a second pending request for the same
	// (carpool, requester) pair.
	ErrDuplicateJoinRequest = errors.New("a pending join request already exists for this carpool")
	// ErrRequestNotPending means the request was decided between read and
	// write (two devices acting at once).
	ErrRequestNotPending = errors.New("join request is no longer pending")
	// ErrRequestAlreadyDecided means the request reached the opposite
	// terminal state; terminal states never change.
	ErrRequestAlreadyDecided = errors.New("join request has already been decided")
	ErrNoSeatsAvailable      = errors.New("carpool has no available seats")
	ErrNotCarpoolDriver      = errors.New("only the carpool's driver may view its requests")
)
