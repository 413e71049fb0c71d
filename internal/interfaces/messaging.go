package interfaces

import (
	"context"
	"time"

	"pizza-backoffice/internal/domain"
)

// NotificationMessage travels over the notifications fanout towards the
// customer-facing delivery channel (email/SMS worker).
type NotificationMessage struct {
	NotificationID int                     `json:"notification_id"`
	OrderID        int                     `json:"order_id"`
	Type           domain.NotificationType `json:"type"`
	Message        string                  `json:"message"`
	CustomerEmail  string                  `json:"customer_email"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Messaging contracts (Adapter/RabbitMQ)

type MessagePublisher interface {
	PublishNotification(ctx context.Context, msg NotificationMessage) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error

// OrderMirror is the best-effort Sync Bridge into the secondary
// real-time store. Mirror failures are logged by callers and never
// block the primary mutation.
type OrderMirror interface {
	Publish(ctx context.Context, order *domain.Order) error
}

// PaymentGateway is the capture hook of the external payment provider.
// Authorization happens at checkout, before the order exists here.
type PaymentGateway interface {
	Capture(ctx context.Context, paymentID string, amount float64) error
}
