package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	notifications []*domain.CustomerNotification
}

func (s *memoryStore) Create(ctx context.Context, n *domain.CustomerNotification) error {
	n.ID = len(s.notifications) + 1
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *memoryStore) GetByID(ctx context.Context, id int) (*domain.CustomerNotification, error) {
	for _, n := range s.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
}

func (s *memoryStore) GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error) {
	var out []*domain.CustomerNotification
	for _, n := range s.notifications {
		if n.OrderID == orderID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *memoryStore) Respond(ctx context.Context, id int, response string, status domain.ResponseStatus, at time.Time) (*domain.CustomerNotification, error) {
	n, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RespondedAt != nil {
		return n, fmt.Errorf("notification %d: %w", id, domain.ErrAlreadyResponded)
	}
	n.CustomerResponse = &response
	n.ResponseStatus = status
	n.RespondedAt = &at
	n.Status = "responded"
	return n, nil
}

type recordingPublisher struct {
	messages []interfaces.NotificationMessage
	err      error
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, msg interfaces.NotificationMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func testOrder(email string) *domain.Order {
	return &domain.Order{
		ID: 7,
		CustomerInfo: domain.CustomerInfo{
			FirstName: "Ada",
			LastName:  "Moreno",
			Phone:     "5551230000",
			Email:     email,
		},
		Status: domain.StatusConfirmed,
	}
}

func TestNotifySubstitution(t *testing.T) {
	store := &memoryStore{}
	publisher := &recordingPublisher{}
	service := NewService(store, publisher, logger.New("test"))

	sub := &domain.Substitution{Reason: "out of bacon", Suggestion: "ham", RequestedAt: time.Now()}
	n, err := service.NotifySubstitution(context.Background(), testOrder("ada@example.com"), sub)
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Equal(t, domain.NotificationSubstitutionRequest, n.Type)
	assert.Equal(t, domain.ResponsePending, n.ResponseStatus)
	assert.Contains(t, n.Message, "out of bacon")
	assert.Contains(t, n.Message, "ham")
	require.NotNil(t, n.RequestDetails)

	require.Len(t, publisher.messages, 1)
	assert.Equal(t, n.ID, publisher.messages[0].NotificationID)
}

func TestNotifyWithoutEmail(t *testing.T) {
	store := &memoryStore{}
	publisher := &recordingPublisher{}
	service := NewService(store, publisher, logger.New("test"))
	order := testOrder("")

	sub := &domain.Substitution{Reason: "out of bacon", Suggestion: "ham", RequestedAt: time.Now()}
	n, err := service.NotifySubstitution(context.Background(), order, sub)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = service.NotifyCancellation(context.Background(), order, "out of dough")
	require.NoError(t, err)
	assert.Nil(t, n)

	assert.Empty(t, store.notifications)
	assert.Empty(t, publisher.messages)
}

func TestPublishFailureKeepsRecord(t *testing.T) {
	store := &memoryStore{}
	publisher := &recordingPublisher{err: errors.New("broker down")}
	service := NewService(store, publisher, logger.New("test"))

	n, err := service.NotifyCancellation(context.Background(), testOrder("ada@example.com"), "out of dough")
	require.NoError(t, err, "a broker outage must not fail the operation")
	require.NotNil(t, n)

	require.Len(t, store.notifications, 1)
	assert.Empty(t, publisher.messages)
}

func TestRespondRejectsNonSubstitutionTypes(t *testing.T) {
	store := &memoryStore{}
	service := NewService(store, &recordingPublisher{}, logger.New("test"))

	n, err := service.NotifyCancellation(context.Background(), testOrder("ada@example.com"), "out of dough")
	require.NoError(t, err)
	require.NotNil(t, n)

	_, err = service.Respond(context.Background(), n.ID, "approved", domain.ResponseApproved)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := store.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.RespondedAt, "a rejected response must not mark the notification answered")
}

func TestRespondValidation(t *testing.T) {
	store := &memoryStore{}
	service := NewService(store, &recordingPublisher{}, logger.New("test"))

	sub := &domain.Substitution{Reason: "out of bacon", Suggestion: "ham", RequestedAt: time.Now()}
	n, err := service.NotifySubstitution(context.Background(), testOrder("ada@example.com"), sub)
	require.NoError(t, err)

	_, err = service.Respond(context.Background(), n.ID, "maybe", domain.ResponseStatus("maybe"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	responded, err := service.Respond(context.Background(), n.ID, "declined", domain.ResponseDeclined)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseDeclined, responded.ResponseStatus)
	require.NotNil(t, responded.RespondedAt)
}
