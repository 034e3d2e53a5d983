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

// RealtimeNotifier pushes an event to a user's connected devices. Delivery
// is in-app only; push transports live outside this service.
type RealtimeNotifier interface {
	SendUserEvent(userID primitive.ObjectID, event string, data map[string]interface{})
}

type CreateNotificationInput struct {
	UserID    primitive.ObjectID
	Type      models.NotificationType
	Title     string
	Body      string
	Data      map[string]interface{}
	ActionURL string
	Status    models.JoinRequestStatus
}

type NotificationService interface {
	Create(ctx context.Context, input *CreateNotificationInput) (primitive.ObjectID, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.JoinRequestStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	notifier         RealtimeNotifier
	logger           *logger.Logger
}

func NewNotificationService(notificationRepo interfaces.NotificationRepository, notifier RealtimeNotifier, log *logger.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		notifier:         notifier,
		logger:           log,
	}
}

func (s *notificationService) Create(ctx context.Context, input *CreateNotificationInput) (primitive.ObjectID, error) {
	notification := &models.Notification{
		UserID:    input.UserID,
		Type:      input.Type,
		Title:     input.Title,
		Body:      input.Body,
		Data:      input.Data,
		ActionURL: input.ActionURL,
		Status:    input.Status,
		Read:      false,
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.notifier != nil {
		s.notifier.SendUserEvent(input.UserID, utils.EventNotificationCreated, map[string]interface{}{
			"notification_id": notification.ID.Hex(),
			"type":            string(notification.Type),
			"title":           notification.Title,
			"body":            notification.Body,
			"action_url":      notification.ActionURL,
		})
	}

	return notification.ID, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.GetByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	if err := s.notificationRepo.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *notificationService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.JoinRequestStatus) error {
	if err := s.notificationRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	return nil
}

func (s *notificationService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.notificationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
