package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentAuthorized  PaymentStatus = "authorized"
	PaymentCharged     PaymentStatus = "charged"
	PaymentFailed      PaymentStatus = "failed"
	PaymentCashPending PaymentStatus = "cash_pending"
)

// CashPaymentID is the sentinel payment reference for cash orders.
const CashPaymentID = "CASH_PAYMENT"

// CustomerInfo identifies the customer who placed the order.
type CustomerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

// OrderItem is a single line item of an order.
type OrderItem struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Size     string   `json:"size"`
	Crust    string   `json:"crust,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"`
}

// Substitution is a pending staff-initiated content change awaiting
// customer consent. At most one is pending per order; a new request
// supersedes an unanswered prior one.
type Substitution struct {
	Reason      string    `json:"reason"`
	Suggestion  string    `json:"suggestion"`
	RequestedAt time.Time `json:"requested_at"`
}

// Order is a customer purchase moving through kitchen fulfillment states.
type Order struct {
	ID                  int
	UserID              string
	CustomerInfo        CustomerInfo
	Items               []OrderItem
	Subtotal            float64
	Tax                 float64
	Tip                 float64
	Total               float64
	Status              Status
	PaymentStatus       PaymentStatus
	PaymentID           string
	EstimatedTime       *int
	SpecialInstructions string
	PendingSubstitution *Substitution
	CancellationReason  string
	CancelledBy         string
	CancelledAt         *time.Time
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewOrder creates a confirmed order with business rules applied.
func NewOrder(userID string, customer CustomerInfo, items []OrderItem, subtotal, tax, tip, total float64, paymentID, instructions string) (*Order, error) {
	order := &Order{
		UserID:              userID,
		CustomerInfo:        customer,
		Items:               items,
		Subtotal:            subtotal,
		Tax:                 tax,
		Tip:                 tip,
		Total:               total,
		Status:              StatusConfirmed,
		PaymentStatus:       PaymentAuthorized,
		PaymentID:           paymentID,
		SpecialInstructions: instructions,
		Version:             1,
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}

	if paymentID == CashPaymentID {
		order.PaymentStatus = PaymentCashPending
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies creation-time business rules, including the money
// invariant total == subtotal + tax + tip (to the cent).
func (o *Order) Validate() error {
	if strings.TrimSpace(o.CustomerInfo.FirstName) == "" || strings.TrimSpace(o.CustomerInfo.LastName) == "" {
		return fmt.Errorf("%w: customer first and last name are required", ErrValidation)
	}

	if strings.TrimSpace(o.CustomerInfo.Phone) == "" {
		return fmt.Errorf("%w: customer phone is required", ErrValidation)
	}

	if len(o.Items) < 1 {
		return fmt.Errorf("%w: order must have at least one item", ErrValidation)
	}

	for _, item := range o.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: item name is required", ErrValidation)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: item quantity must be at least 1", ErrValidation)
		}
		if item.Price < 0 {
			return fmt.Errorf("%w: item price must not be negative", ErrValidation)
		}
	}

	if o.Subtotal < 0 || o.Tax < 0 || o.Tip < 0 || o.Total < 0 {
		return fmt.Errorf("%w: money fields must not be negative", ErrValidation)
	}

	if round2(o.Subtotal+o.Tax+o.Tip) != round2(o.Total) {
		return fmt.Errorf("%w: total %.2f does not equal subtotal + tax + tip", ErrValidation, o.Total)
	}

	return nil
}

// TransitionTo moves the order to a new status along the allowed edges.
func (o *Order) TransitionTo(newStatus Status) error {
	if !o.CanTransitionTo(newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, newStatus)
	}

	o.Status = newStatus
	o.UpdatedAt = time.Now()

	if newStatus == StatusCancelled {
		now := time.Now()
		o.CancelledAt = &now
	}

	return nil
}

// CanTransitionTo checks if the forward edge to newStatus is legal.
func (o *Order) CanTransitionTo(newStatus Status) bool {
	validTransitions := map[Status][]Status{
		StatusConfirmed: {StatusPreparing, StatusCancelled},
		StatusPreparing: {StatusReady, StatusCancelled},
		StatusReady:     {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, s := range validTransitions[o.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order reached a terminal status.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// StatusLog is an audit entry for order status changes.
type StatusLog struct {
	ID        int
	OrderID   int
	Status    Status
	ChangedBy string
	Notes     *string
	ChangedAt time.Time
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
