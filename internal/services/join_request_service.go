package services

import (
	"context"
	"fmt"

	"tripmate/internal/models"
	"tripmate/internal/repositories/interfaces"
	"tripmate/internal/utils"
	"tripmate/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreateJoinRequestInput struct {
	CarpoolID     primitive.ObjectID
	TripID        primitive.ObjectID
	RequesterID   primitive.ObjectID
	RequesterName string
	DriverID      primitive.ObjectID
	Message       string
}

type JoinRequestService interface {
	// CreateJoinRequest persists a pending request and notifies the driver.
	// The notification is best effort: its failure is logged, never
	// surfaced, because the request record is the source of truth.
	CreateJoinRequest(ctx context.Context, input *CreateJoinRequestInput) (*models.JoinRequest, error)

	// ApproveJoinRequest flips a pending request to approved, reserves a
	// seat and notifies the requester. Approving an already-approved
	// request is a no-op; approving a rejected one fails.
	ApproveJoinRequest(ctx context.Context, requestID primitive.ObjectID) error

	// RejectJoinRequest flips a pending request to rejected and notifies
	// the requester. No seat effect.
	RejectJoinRequest(ctx context.Context, requestID primitive.ObjectID) error

	// CancelJoinRequest deletes a still-pending request. Requester-initiated
	// withdrawal; the driver is not notified.
	CancelJoinRequest(ctx context.Context, requestID primitive.ObjectID) error

	ListForRequester(ctx context.Context, requesterID primitive.ObjectID) ([]*models.JoinRequest, error)
	ListPendingForDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.JoinRequest, error)

	// ListPendingForCarpool backs the carpool's request screen; only the
	// carpool's driver may view it.
	ListPendingForCarpool(ctx context.Context, carpoolID, callerID primitive.ObjectID) ([]*models.JoinRequest, error)
}

type joinRequestService struct {
	joinRequestRepo interfaces.JoinRequestRepository
	notifications   NotificationService
	logger          *logger.Logger
}

func NewJoinRequestService(joinRequestRepo interfaces.JoinRequestRepository, notifications NotificationService, log *logger.Logger) JoinRequestService {
	return &joinRequestService{
		joinRequestRepo: joinRequestRepo,
		notifications:   notifications,
		logger:          log,
	}
}

func (s *joinRequestService) CreateJoinRequest(ctx context.Context, input *CreateJoinRequestInput) (*models.JoinRequest, error) {
	if len(input.Message) > utils.MaxJoinRequestMessageLength {
		return nil, ErrJoinMessageTooLong
	}

	exists, err := s.joinRequestRepo.HasPending(ctx, input.CarpoolID, input.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for pending request: %w", err)
	}
	if exists {
		return nil, ErrDuplicateJoinRequest
	}

	request := &models.JoinRequest{
		CarpoolID:     input.CarpoolID,
		TripID:        input.TripID,
		RequesterID:   input.RequesterID,
		RequesterName: input.RequesterName,
		DriverID:      input.DriverID,
		Message:       input.Message,
		Status:        models.JoinRequestStatusPending,
	}

	if err := s.joinRequestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.notifyDriver(ctx, request)

	return request, nil
}

func (s *joinRequestService) ApproveJoinRequest(ctx context.Context, requestID primitive.ObjectID) error {
	request, err := s.joinRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get join request: %w", err)
	}

	switch request.Status {
	case models.JoinRequestStatusApproved:
		// Second tap or retried call; nothing to do, and no second
		// notification.
		return nil
	case models.JoinRequestStatusRejected:
		return ErrRequestAlreadyDecided
	}

	if err := s.joinRequestRepo.Approve(ctx, requestID); err != nil {
		return err
	}

	s.notifyRequester(ctx, request, models.JoinRequestStatusApproved)

	return nil
}

func (s *joinRequestService) RejectJoinRequest(ctx context.Context, requestID primitive.ObjectID) error {
	request, err := s.joinRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get join request: %w", err)
	}

	switch request.Status {
	case models.JoinRequestStatusRejected:
		return nil
	case models.JoinRequestStatusApproved:
		return ErrRequestAlreadyDecided
	}

	if err := s.joinRequestRepo.Reject(ctx, requestID); err != nil {
		return err
	}

	s.notifyRequester(ctx, request, models.JoinRequestStatusRejected)

	return nil
}

func (s *joinRequestService) CancelJoinRequest(ctx context.Context, requestID primitive.ObjectID) error {
	request, err := s.joinRequestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to get join request: %w", err)
	}

	if !request.IsPending() {
		return ErrRequestAlreadyDecided
	}

	if err := s.joinRequestRepo.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("failed to cancel join request: %w", err)
	}

	return nil
}

func (s *joinRequestService) ListForRequester(ctx context.Context, requesterID primitive.ObjectID) ([]*models.JoinRequest, error) {
	requests, err := s.joinRequestRepo.GetByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return requests, nil
}

func (s *joinRequestService) ListPendingForDriver(ctx context.Context, driverID primitive.ObjectID) ([]*models.JoinRequest, error) {
	requests, err := s.joinRequestRepo.GetPendingByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending join requests: %w", err)
	}
	return requests, nil
}

func (s *joinRequestService) ListPendingForCarpool(ctx context.Context, carpoolID, callerID primitive.ObjectID) ([]*models.JoinRequest, error) {
	carpool, err := s.joinRequestRepo.GetCarpool(ctx, carpoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to get carpool: %w", err)
	}
	if carpool.DriverID != callerID {
		return nil, ErrNotCarpoolDriver
	}

	requests, err := s.joinRequestRepo.GetPendingByCarpool(ctx, carpoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list carpool join requests: %w", err)
	}
	return requests, nil
}

func (s *joinRequestService) notifyDriver(ctx context.Context, request *models.JoinRequest) {
	body := fmt.Sprintf("%s wants to join your carpool", request.RequesterName)
	if request.Message != "" {
		body = fmt.Sprintf("%s: %q", body, request.Message)
	}

	_, err := s.notifications.Create(ctx, &CreateNotificationInput{
		UserID: request.DriverID,
		Type:   models.NotificationTypeCarpool,
		Title:  "New Join Request",
		Body:   body,
		Data: map[string]interface{}{
			"join_request_id": request.ID.Hex(),
			"carpool_id":      request.CarpoolID.Hex(),
			"trip_id":         request.TripID.Hex(),
			"requires_action": true,
		},
		ActionURL: fmt.Sprintf("/carpools/%s/requests", request.CarpoolID.Hex()),
		Status:    models.JoinRequestStatusPending,
	})
	if err != nil {
		s.logger.WithError(err).WithJoinRequestID(request.ID).Warn("failed to notify driver of join request")
	}
}

func (s *joinRequestService) notifyRequester(ctx context.Context, request *models.JoinRequest, status models.JoinRequestStatus) {
	title := "Request Approved!"
	body := "Your request to join the carpool was approved."
	if status == models.JoinRequestStatusRejected {
		title = "Request Declined"
		body = "Your request to join the carpool was declined."
	}

	_, err := s.notifications.Create(ctx, &CreateNotificationInput{
		UserID: request.RequesterID,
		Type:   models.NotificationTypeCarpool,
		Title:  title,
		Body:   body,
		Data: map[string]interface{}{
			"join_request_id": request.ID.Hex(),
			"carpool_id":      request.CarpoolID.Hex(),
			"trip_id":         request.TripID.Hex(),
		},
		ActionURL: fmt.Sprintf("/trips/%s", request.TripID.Hex()),
		Status:    status,
	})
	if err != nil {
		s.logger.WithError(err).WithJoinRequestID(request.ID).Warn("failed to notify requester of decision")
	}
}
