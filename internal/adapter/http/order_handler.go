package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

type OrderHandler struct {
	service  interfaces.LifecycleService
	notifier interfaces.NotificationService
	logger   logger.Logger
}

func NewOrderHandler(service interfaces.LifecycleService, notifier interfaces.NotificationService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		notifier: notifier,
		logger:   logger,
	}
}

type CreateOrderRequest struct {
	UserID              string              `json:"user_id,omitempty"`
	Customer            CustomerRequest     `json:"customer_info"`
	Items               []OrderItemRequest  `json:"items"`
	Subtotal            float64             `json:"subtotal"`
	Tax                 float64             `json:"tax"`
	Tip                 float64             `json:"tip"`
	Total               float64             `json:"total"`
	PaymentID           string              `json:"payment_id"`
	SpecialInstructions string              `json:"special_instructions,omitempty"`
}

type CustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
}

type OrderItemRequest struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Size     string   `json:"size"`
	Crust    string   `json:"crust,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
	Quantity int      `json:"quantity"`
	Price    float64  `json:"price"`
}

type UpdateOrderRequest struct {
	Status        *string `json:"status,omitempty"`
	EstimatedTime *int    `json:"estimated_time,omitempty"`
	ChangedBy     string  `json:"changed_by,omitempty"`
}

type CancelRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

type SubstitutionRequest struct {
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

type ReopenRequest struct {
	Target string `json:"target"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

type OrderResponse struct {
	ID                  int                  `json:"id"`
	UserID              string               `json:"user_id,omitempty"`
	CustomerInfo        domain.CustomerInfo  `json:"customer_info"`
	Items               []domain.OrderItem   `json:"items"`
	Subtotal            float64              `json:"subtotal"`
	Tax                 float64              `json:"tax"`
	Tip                 float64              `json:"tip"`
	Total               float64              `json:"total"`
	Status              domain.Status        `json:"status"`
	PaymentStatus       domain.PaymentStatus `json:"payment_status"`
	PaymentID           string               `json:"payment_id"`
	EstimatedTime       *int                 `json:"estimated_time,omitempty"`
	SpecialInstructions string               `json:"special_instructions,omitempty"`
	PendingSubstitution *domain.Substitution `json:"pending_substitution,omitempty"`
	CancellationReason  string               `json:"cancellation_reason,omitempty"`
	CancelledBy         string               `json:"cancelled_by,omitempty"`
	CancelledAt         *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

func toOrderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:                  order.ID,
		UserID:              order.UserID,
		CustomerInfo:        order.CustomerInfo,
		Items:               order.Items,
		Subtotal:            order.Subtotal,
		Tax:                 order.Tax,
		Tip:                 order.Tip,
		Total:               order.Total,
		Status:              order.Status,
		PaymentStatus:       order.PaymentStatus,
		PaymentID:           order.PaymentID,
		EstimatedTime:       order.EstimatedTime,
		SpecialInstructions: order.SpecialInstructions,
		PendingSubstitution: order.PendingSubstitution,
		CancellationReason:  order.CancellationReason,
		CancelledBy:         order.CancelledBy,
		CancelledAt:         order.CancelledAt,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

// HandleOrders serves the /orders collection.
func (h *OrderHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createOrder(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleOrder serves /orders/{id} and its sub-resources.
func (h *OrderHandler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 {
		respondError(w, http.StatusBadRequest, "invalid path")
		return
	}

	orderID, err := strconv.Atoi(parts[1])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if len(parts) == 2 {
		switch r.Method {
		case http.MethodGet:
			h.getOrder(w, r, orderID)
		case http.MethodPatch:
			h.updateOrder(w, r, orderID)
		default:
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	switch parts[2] {
	case "cancel":
		h.requirePost(w, r, func() { h.cancelOrder(w, r, orderID) })
	case "substitution":
		h.requirePost(w, r, func() { h.requestSubstitution(w, r, orderID) })
	case "charge":
		h.requirePost(w, r, func() { h.chargePayment(w, r, orderID) })
	case "reopen":
		h.requirePost(w, r, func() { h.reopenOrder(w, r, orderID) })
	case "history":
		h.getHistory(w, r, orderID)
	case "notifications":
		h.getNotifications(w, r, orderID)
	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}

func (h *OrderHandler) requirePost(w http.ResponseWriter, r *http.Request, fn func()) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fn()
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.OrderItem{
			ID:       item.ID,
			Name:     strings.TrimSpace(item.Name),
			Size:     item.Size,
			Crust:    item.Crust,
			Toppings: item.Toppings,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	cmd := interfaces.CreateOrderCommand{
		UserID: req.UserID,
		Customer: domain.CustomerInfo{
			FirstName: strings.TrimSpace(req.Customer.FirstName),
			LastName:  strings.TrimSpace(req.Customer.LastName),
			Phone:     strings.TrimSpace(req.Customer.Phone),
			Email:     strings.TrimSpace(req.Customer.Email),
		},
		Items:               items,
		Subtotal:            req.Subtotal,
		Tax:                 req.Tax,
		Tip:                 req.Tip,
		Total:               req.Total,
		PaymentID:           req.PaymentID,
		SpecialInstructions: req.SpecialInstructions,
	}

	order, err := h.service.CreateOrder(r.Context(), cmd)
	if err != nil {
		h.logger.Error("order_creation_failed", "Failed to create order", "", nil, err)
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	userID := r.URL.Query().Get("user_id")

	orders, err := h.service.ListOrders(r.Context(), status, userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, orderID int) {
	order, err := h.service.GetOrder(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

// updateOrder routes partial updates through the engine's validated
// operations; it never does a raw field overwrite.
func (h *OrderHandler) updateOrder(w http.ResponseWriter, r *http.Request, orderID int) {
	var req UpdateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		order *domain.Order
		err   error
	)

	switch {
	case req.Status != nil:
		order, err = h.service.Advance(r.Context(), interfaces.AdvanceCommand{
			OrderID:       orderID,
			Target:        domain.Status(*req.Status),
			EstimatedTime: req.EstimatedTime,
			ChangedBy:     req.ChangedBy,
		})
	case req.EstimatedTime != nil:
		order, err = h.service.SetEstimatedTime(r.Context(), orderID, *req.EstimatedTime)
	default:
		respondError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request, orderID int) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Reason) == "" || strings.TrimSpace(req.CancelledBy) == "" {
		respondError(w, http.StatusBadRequest, "reason and cancelled_by are required")
		return
	}

	order, err := h.service.Cancel(r.Context(), interfaces.CancelCommand{
		OrderID:     orderID,
		Reason:      req.Reason,
		CancelledBy: req.CancelledBy,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) requestSubstitution(w http.ResponseWriter, r *http.Request, orderID int) {
	var req SubstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Reason) == "" {
		respondError(w, http.StatusBadRequest, "reason is required")
		return
	}

	order, err := h.service.RequestSubstitution(r.Context(), interfaces.SubstitutionCommand{
		OrderID:    orderID,
		Reason:     req.Reason,
		Suggestion: req.Suggestion,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) chargePayment(w http.ResponseWriter, r *http.Request, orderID int) {
	order, err := h.service.ChargePayment(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) reopenOrder(w http.ResponseWriter, r *http.Request, orderID int) {
	var req ReopenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.Reopen(r.Context(), interfaces.ReopenCommand{
		OrderID: orderID,
		Target:  domain.Status(req.Target),
		Actor:   req.Actor,
		Reason:  req.Reason,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) getHistory(w http.ResponseWriter, r *http.Request, orderID int) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	history, err := h.service.GetStatusHistory(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(history))
	for i, log := range history {
		resp[i] = map[string]interface{}{
			"status":     log.Status,
			"changed_by": log.ChangedBy,
			"notes":      log.Notes,
			"timestamp":  log.ChangedAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) getNotifications(w http.ResponseWriter, r *http.Request, orderID int) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	notifications, err := h.notifier.GetByOrder(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	respondJSON(w, http.StatusOK, resp)
}
