package notify

import (
	"context"
	"fmt"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

// Service creates and resolves customer notifications. Records are
// persisted first; delivery over the fanout is best-effort and a
// failure leaves the record pending for the tracking UI to surface.
type Service struct {
	notifications interfaces.NotificationRepository
	publisher     interfaces.MessagePublisher
	logger        logger.Logger
}

func NewService(notifications interfaces.NotificationRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

func (s *Service) NotifySubstitution(ctx context.Context, order *domain.Order, sub *domain.Substitution) (*domain.CustomerNotification, error) {
	if order.CustomerInfo.Email == "" {
		return nil, nil
	}

	message := fmt.Sprintf(
		"We need to make a substitution on your order #%d: %s. Suggested: %s. Please approve or decline.",
		order.ID, sub.Reason, sub.Suggestion,
	)

	return s.create(ctx, &domain.CustomerNotification{
		OrderID:        order.ID,
		Type:           domain.NotificationSubstitutionRequest,
		Message:        message,
		CustomerEmail:  order.CustomerInfo.Email,
		RequestDetails: sub,
		Status:         "sent",
		ResponseStatus: domain.ResponsePending,
		CreatedAt:      time.Now(),
	})
}

func (s *Service) NotifyCancellation(ctx context.Context, order *domain.Order, reason string) (*domain.CustomerNotification, error) {
	if order.CustomerInfo.Email == "" {
		return nil, nil
	}

	message := fmt.Sprintf("Your order #%d has been cancelled: %s. Any payment hold will be released.", order.ID, reason)

	return s.create(ctx, &domain.CustomerNotification{
		OrderID:        order.ID,
		Type:           domain.NotificationOrderCancelled,
		Message:        message,
		CustomerEmail:  order.CustomerInfo.Email,
		Status:         "sent",
		ResponseStatus: domain.ResponsePending,
		CreatedAt:      time.Now(),
	})
}

func (s *Service) GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error) {
	return s.notifications.GetByOrder(ctx, orderID)
}

// Respond records the customer's answer exactly once. Only substitution
// requests solicit consent; other notification types reject responses.
func (s *Service) Respond(ctx context.Context, notificationID int, response string, status domain.ResponseStatus) (*domain.CustomerNotification, error) {
	if status != domain.ResponseApproved && status != domain.ResponseDeclined {
		return nil, fmt.Errorf("%w: response status must be approved or declined", domain.ErrValidation)
	}

	existing, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if existing.Type != domain.NotificationSubstitutionRequest {
		return nil, fmt.Errorf("%w: notification type %s does not accept a response", domain.ErrValidation, existing.Type)
	}

	n, err := s.notifications.Respond(ctx, notificationID, response, status, time.Now())
	if err != nil {
		return n, err
	}

	s.logger.Info("notification_responded", fmt.Sprintf("Customer responded %s to notification %d", status, notificationID), "",
		map[string]interface{}{"notification_id": notificationID, "status": status})

	return n, nil
}

func (s *Service) create(ctx context.Context, n *domain.CustomerNotification) (*domain.CustomerNotification, error) {
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}

	msg := interfaces.NotificationMessage{
		NotificationID: n.ID,
		OrderID:        n.OrderID,
		Type:           n.Type,
		Message:        n.Message,
		CustomerEmail:  n.CustomerEmail,
		CreatedAt:      n.CreatedAt,
	}

	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		// The record stays; the customer still sees it in the tracker.
		s.logger.Error("notification_publish_failed", "Failed to publish notification", "",
			map[string]interface{}{"notification_id": n.ID, "order_id": n.OrderID}, err)
	}

	return n, nil
}
