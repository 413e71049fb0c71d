package interfaces

import (
	"context"
	"time"

	"pizza-backoffice/internal/domain"
)

// Repository contracts (Adapter/Postgres)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int) (*domain.Order, error)
	GetAll(ctx context.Context) ([]*domain.Order, error)
	GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	GetByPhone(ctx context.Context, phone string) ([]*domain.Order, error)

	// Update persists the order only if the stored version still equals
	// order.Version, then increments it. A lost race returns
	// domain.ErrConcurrentModification.
	Update(ctx context.Context, order *domain.Order) error

	LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, notes *string) error
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.CustomerNotification) error
	GetByID(ctx context.Context, id int) (*domain.CustomerNotification, error)
	GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error)

	// Respond sets the response fields atomically, exactly once. A second
	// call returns domain.ErrAlreadyResponded.
	Respond(ctx context.Context, id int, response string, status domain.ResponseStatus, at time.Time) (*domain.CustomerNotification, error)
}

type CancellationRepository interface {
	Append(ctx context.Context, cancellation *domain.OrderCancellation) error
	GetByOrder(ctx context.Context, orderID int) ([]*domain.OrderCancellation, error)
}

type CatalogRepository interface {
	ListActive(ctx context.Context) ([]*domain.PizzaItem, error)
	GetByID(ctx context.Context, id int) (*domain.PizzaItem, error)
}
