package domain

// PizzaItem is a menu catalog entry. Read-mostly.
type PizzaItem struct {
	ID          int
	Name        string
	Description string
	BasePrice   float64
	ImageURL    string
	Category    string
	IsActive    bool
}

// TrustReport is the derived cash-payment eligibility view for a phone
// number. Recomputed from order history on demand, never stored.
type TrustReport struct {
	Phone           string
	TotalOrders     int
	CompletedOrders int
	CancelledOrders int
	Score           int
	CashEligible    bool
}
