package interfaces

import (
	"context"

	"pizza-backoffice/internal/domain"
)

// Commands for services

type CreateOrderCommand struct {
	UserID              string
	Customer            domain.CustomerInfo
	Items               []domain.OrderItem
	Subtotal            float64
	Tax                 float64
	Tip                 float64
	Total               float64
	PaymentID           string
	SpecialInstructions string
}

type AdvanceCommand struct {
	OrderID       int
	Target        domain.Status
	EstimatedTime *int
	ChangedBy     string
}

type CancelCommand struct {
	OrderID     int
	Reason      string
	CancelledBy string
}

type SubstitutionCommand struct {
	OrderID    int
	Reason     string
	Suggestion string
}

type ReopenCommand struct {
	OrderID int
	Target  domain.Status
	Actor   string
	Reason  string
}

// Service contracts (Business Logic)

type LifecycleService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id int) (*domain.Order, error)
	ListOrders(ctx context.Context, status domain.Status, userID string) ([]*domain.Order, error)
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)

	Advance(ctx context.Context, cmd AdvanceCommand) (*domain.Order, error)
	SetEstimatedTime(ctx context.Context, orderID, minutes int) (*domain.Order, error)
	ChargePayment(ctx context.Context, orderID int) (*domain.Order, error)
	Cancel(ctx context.Context, cmd CancelCommand) (*domain.Order, error)
	RequestSubstitution(ctx context.Context, cmd SubstitutionCommand) (*domain.Order, error)
	Reopen(ctx context.Context, cmd ReopenCommand) (*domain.Order, error)

	Stats(ctx context.Context) (*OrderStats, error)
}

type NotificationService interface {
	NotifySubstitution(ctx context.Context, order *domain.Order, sub *domain.Substitution) (*domain.CustomerNotification, error)
	NotifyCancellation(ctx context.Context, order *domain.Order, reason string) (*domain.CustomerNotification, error)
	GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error)
	Respond(ctx context.Context, notificationID int, response string, status domain.ResponseStatus) (*domain.CustomerNotification, error)
}

type TrustService interface {
	Evaluate(ctx context.Context, phone string) (*domain.TrustReport, error)
}

// OrderStats is the admin dashboard aggregate view.
type OrderStats struct {
	TotalOrders    int                   `json:"total_orders"`
	ByStatus       map[domain.Status]int `json:"by_status"`
	Revenue        float64               `json:"revenue"`
	ActiveOrders   int                   `json:"active_orders"`
	AverageOrder   float64               `json:"average_order"`
}
