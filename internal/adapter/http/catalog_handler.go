package http

import (
	"net/http"
	"strings"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/interfaces"
)

type CatalogHandler struct {
	catalog   interfaces.CatalogRepository
	trust     interfaces.TrustService
	lifecycle interfaces.LifecycleService
	logger    logger.Logger
}

func NewCatalogHandler(catalog interfaces.CatalogRepository, trust interfaces.TrustService, lifecycle interfaces.LifecycleService, logger logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		trust:     trust,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// GetPizzas serves GET /pizzas, the active menu.
func (h *CatalogHandler) GetPizzas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	items, err := h.catalog.ListActive(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	resp := make([]map[string]interface{}, len(items))
	for i, item := range items {
		resp[i] = map[string]interface{}{
			"id":          item.ID,
			"name":        item.Name,
			"description": item.Description,
			"base_price":  item.BasePrice,
			"image_url":   item.ImageURL,
			"category":    item.Category,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetTrust serves GET /customers/{phone}/trust.
func (h *CatalogHandler) GetTrust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "trust" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	phone := parts[1]
	if phone == "" {
		respondError(w, http.StatusBadRequest, "phone is required")
		return
	}

	report, err := h.trust.Evaluate(r.Context(), phone)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"phone":            report.Phone,
		"total_orders":     report.TotalOrders,
		"completed_orders": report.CompletedOrders,
		"cancelled_orders": report.CancelledOrders,
		"trust_score":      report.Score,
		"cash_eligible":    report.CashEligible,
	})
}

// GetStats serves GET /stats for the admin dashboard.
func (h *CatalogHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := h.lifecycle.Stats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
