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

type NotificationHandler struct {
	notifier interfaces.NotificationService
	logger   logger.Logger
}

func NewNotificationHandler(notifier interfaces.NotificationService, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

type RespondRequest struct {
	Response string `json:"response"`
	Status   string `json:"status"`
}

type NotificationResponse struct {
	ID               int                     `json:"id"`
	OrderID          int                     `json:"order_id"`
	Type             domain.NotificationType `json:"type"`
	Message          string                  `json:"message"`
	CustomerEmail    string                  `json:"customer_email"`
	RequestDetails   *domain.Substitution    `json:"request_details,omitempty"`
	Status           string                  `json:"status"`
	CustomerResponse *string                 `json:"customer_response,omitempty"`
	ResponseStatus   domain.ResponseStatus   `json:"response_status"`
	RespondedAt      *time.Time              `json:"responded_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

func toNotificationResponse(n *domain.CustomerNotification) NotificationResponse {
	return NotificationResponse{
		ID:               n.ID,
		OrderID:          n.OrderID,
		Type:             n.Type,
		Message:          n.Message,
		CustomerEmail:    n.CustomerEmail,
		RequestDetails:   n.RequestDetails,
		Status:           n.Status,
		CustomerResponse: n.CustomerResponse,
		ResponseStatus:   n.ResponseStatus,
		RespondedAt:      n.RespondedAt,
		CreatedAt:        n.CreatedAt,
	}
}

// HandleNotification serves POST /notifications/{id}/respond.
func (h *NotificationHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "respond" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	notificationID, err := strconv.Atoi(parts[1])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	var req RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.notifier.Respond(r.Context(), notificationID, req.Response, domain.ResponseStatus(req.Status))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toNotificationResponse(n))
}
