package notificationshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/notifications"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *notifications.Store
	Service  *notifications.Service
	Access   *access.Store
	Validate *shared.Validation
}

func NewHandler(store *notifications.Store, service *notifications.Service, accessStore *access.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Service: service, Access: accessStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionNotifications, access.ActionRead, h.Access)).Get("/", h.handleList)
		r.With(middleware.Require(access.CollectionNotifications, access.ActionCreate, h.Access)).Post("/", h.handleCreate)

		// Feed routes act on the caller's own deliveries; the auth
		// middleware alone is enough.
		r.Get("/feed", h.handleFeed)
		r.Patch("/feed/{deliveryID}/read", h.handleMarkRead)

		r.Route("/{notificationID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionNotifications, access.ActionRead, h.Access)).Get("/", h.handleGet)
			r.With(middleware.Require(access.CollectionNotifications, access.ActionDelete, h.Access)).Delete("/", h.handleDelete)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)
	level := shared.ParseFilters(r, "level")["level"]

	items, total, err := h.Store.ListNotifications(r.Context(), level, pagination.Limit, pagination.Offset())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", requestID)
		return
	}
	api.SuccessList(w, items, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	n, err := h.Store.GetNotification(r.Context(), chi.URLParam(r, "notificationID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_get_failed", "failed to load notification", requestID)
		return
	}
	api.Success(w, n)
}

type notificationRequest struct {
	Title         string   `json:"title" validate:"required"`
	Body          string   `json:"body" validate:"required"`
	Level         string   `json:"level" validate:"required,oneof=info warning error"`
	RecipientType string   `json:"recipient_type" validate:"required,oneof=all individual group"`
	RecipientIDs  []string `json:"recipient_ids" validate:"dive,uuid"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	n, err := h.Service.Create(r.Context(), notifications.Notification{
		Title:         payload.Title,
		Body:          payload.Body,
		Level:         payload.Level,
		RecipientType: payload.RecipientType,
		CreatedBy:     user.UserID,
	}, payload.RecipientIDs)
	switch {
	case errors.Is(err, notifications.ErrBadRecipients):
		api.Fail(w, http.StatusBadRequest, "recipients_required", err.Error(), requestID)
		return
	case errors.Is(err, notifications.ErrNoRecipients):
		api.Fail(w, http.StatusUnprocessableEntity, "no_recipients", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "notification_create_failed", "failed to create notification", requestID)
		return
	}
	api.Created(w, n)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteNotification(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "notification_delete_failed", "failed to delete notification", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	deliveries, total, err := h.Store.Feed(r.Context(), user.UserID, unreadOnly, pagination.Limit, pagination.Offset())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "feed_failed", "failed to load notification feed", requestID)
		return
	}
	api.SuccessList(w, deliveries, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	delivery, err := h.Store.MarkRead(r.Context(), chi.URLParam(r, "deliveryID"), user.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "delivery not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mark_read_failed", "failed to mark notification read", requestID)
		return
	}
	api.Success(w, delivery)
}
