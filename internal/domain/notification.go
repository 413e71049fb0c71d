package domain

import "time"

type NotificationType string

const (
	NotificationSubstitutionRequest NotificationType = "substitution_request"
	NotificationOrderCancelled      NotificationType = "order_cancelled"
	NotificationOrderUpdate         NotificationType = "order_update"
)

type ResponseStatus string

const (
	ResponsePending  ResponseStatus = "pending"
	ResponseApproved ResponseStatus = "approved"
	ResponseDeclined ResponseStatus = "declined"
)

// CustomerNotification is an out-of-band request needing customer consent.
// The three response fields are set together, at most once.
type CustomerNotification struct {
	ID               int
	OrderID          int
	Type             NotificationType
	Message          string
	CustomerEmail    string
	RequestDetails   *Substitution
	Status           string
	CustomerResponse *string
	ResponseStatus   ResponseStatus
	RespondedAt      *time.Time
	CreatedAt        time.Time
}

// Responded reports whether the customer has already answered.
func (n *CustomerNotification) Responded() bool {
	return n.RespondedAt != nil
}

// OrderCancellation is an append-only audit row, independent of the
// order's own cancellation fields.
type OrderCancellation struct {
	ID            int
	OrderID       int
	EmployeeName  string
	Reason        string
	OrderTotal    float64
	CustomerName  string
	CustomerPhone string
	CancelledAt   time.Time
}
