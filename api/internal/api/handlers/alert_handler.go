package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adscale/pricecrypt/api/internal/core/domain"
	"github.com/adscale/pricecrypt/api/internal/core/services"
)

type AlertListResponse struct {
	Alerts []domain.SystemAlert `json:"alerts"`
	Total  int                  `json:"total"`
}

type AlertQuerier interface {
	ListAlerts(ctx context.Context, filter domain.AlertFilter) ([]domain.SystemAlert, int, error)
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedBy string) error
}

// AlertHandler exposes persisted price encoding alerts to operators.
type AlertHandler struct {
	Store AlertQuerier
}

func NewAlertHandler(store AlertQuerier) *AlertHandler {
	return &AlertHandler{Store: store}
}

// List handles GET /api/v1/alerts
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AlertFilter{
		Severity:   q.Get("severity"),
		Category:   q.Get("category"),
		ResourceID: q.Get("resource_id"),
	}

	if v := q.Get("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "resolved must be a boolean"})
			return
		}
		filter.IsResolved = &resolved
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Message: name + " must be a non-negative integer"})
				return
			}
			*dst = n
		}
	}

	alerts, total, err := h.Store.ListAlerts(r.Context(), filter)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []domain.SystemAlert{}
	}

	writeJSON(w, http.StatusOK, AlertListResponse{Alerts: alerts, Total: total})
}

// Resolve handles POST /api/v1/alerts/{id}/resolve
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid alert ID"})
		return
	}

	claims, ok := services.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
		return
	}

	if err := h.Store.ResolveAlert(r.Context(), id, claims.Subject); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
