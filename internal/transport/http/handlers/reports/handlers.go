package reportshandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/reports"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store  *reports.Store
	Audit  *audit.Store
	Access *access.Store
}

func NewHandler(store *reports.Store, auditStore *audit.Store, accessStore *access.Store) *Handler {
	return &Handler{Store: store, Audit: auditStore, Access: accessStore}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionReports, access.ActionRead, h.Access)).Get("/dashboard", h.handleDashboard)
		r.With(middleware.Require(access.CollectionReports, access.ActionRead, h.Access)).Get("/audit-events", h.handleAuditEvents)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	dashboard, err := h.Store.Dashboard(r.Context(), time.Now().UTC())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
		return
	}
	api.Success(w, dashboard)
}

func (h *Handler) handleAuditEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 50, 200)
	filters := shared.ParseFilters(r, "action", "entity_type", "entity_id", "actor_id")

	events, total, err := h.Audit.List(r.Context(), audit.Filter{
		Action:     filters["action"],
		EntityType: filters["entity_type"],
		EntityID:   filters["entity_id"],
		ActorID:    filters["actor_id"],
	}, pagination.Limit, pagination.Offset())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}
	api.SuccessList(w, events, total, pagination.Page, pagination.Limit)
}
