package accesshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *access.Store
	Validate *shared.Validation
}

func NewHandler(store *access.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionRoles, access.ActionRead, h.Store)).Get("/", h.handleListRoles)
		r.With(middleware.Require(access.CollectionRoles, access.ActionCreate, h.Store)).Post("/", h.handleCreateRole)
		r.Route("/{roleID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionRoles, access.ActionRead, h.Store)).Get("/", h.handleGetRole)
			r.With(middleware.Require(access.CollectionRoles, access.ActionUpdate, h.Store)).Put("/", h.handleUpdateRole)
			r.With(middleware.Require(access.CollectionRoles, access.ActionDelete, h.Store)).Delete("/", h.handleDeleteRole)
		})
	})

	r.Route("/policies", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionPolicies, access.ActionRead, h.Store)).Get("/", h.handleListPolicies)
		r.With(middleware.Require(access.CollectionPolicies, access.ActionCreate, h.Store)).Post("/", h.handleCreatePolicy)
		r.Route("/{policyID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionPolicies, access.ActionRead, h.Store)).Get("/", h.handleGetPolicy)
			r.With(middleware.Require(access.CollectionPolicies, access.ActionUpdate, h.Store)).Put("/", h.handleUpdatePolicy)
			r.With(middleware.Require(access.CollectionPolicies, access.ActionDelete, h.Store)).Delete("/", h.handleDeletePolicy)
		})
	})

	r.Route("/permissions", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionPermissions, access.ActionRead, h.Store)).Get("/", h.handleListPermissions)
		r.With(middleware.Require(access.CollectionPermissions, access.ActionCreate, h.Store)).Post("/", h.handleCreatePermission)
		r.Route("/{permissionID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionPermissions, access.ActionRead, h.Store)).Get("/", h.handleGetPermission)
			r.With(middleware.Require(access.CollectionPermissions, access.ActionUpdate, h.Store)).Put("/", h.handleUpdatePermission)
			r.With(middleware.Require(access.CollectionPermissions, access.ActionDelete, h.Store)).Delete("/", h.handleDeletePermission)
		})
	})
}

type roleRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	PolicyIDs   []string `json:"policy_ids" validate:"dive,uuid"`
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	roles, err := h.Store.ListRoles(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_list_failed", "failed to list roles", requestID)
		return
	}
	api.SuccessList(w, roles, len(roles), 1, len(roles))
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	role, err := h.Store.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "role not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_get_failed", "failed to load role", requestID)
		return
	}
	api.Success(w, role)
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload roleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreateRole(r.Context(), payload.Name, payload.Description, payload.PolicyIDs)
	if err != nil {
		api.Fail(w, http.StatusConflict, "role_create_failed", "failed to create role", requestID)
		return
	}
	role, err := h.Store.GetRole(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_create_failed", "failed to load created role", requestID)
		return
	}
	api.Created(w, role)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload roleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id := chi.URLParam(r, "roleID")
	err := h.Store.UpdateRole(r.Context(), id, payload.Name, payload.Description, payload.PolicyIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "role not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to update role", requestID)
		return
	}
	role, err := h.Store.GetRole(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to load updated role", requestID)
		return
	}
	api.Success(w, role)
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteRole(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		api.Fail(w, http.StatusConflict, "role_delete_failed", "role is still assigned to users", requestID)
		return
	}
	api.NoContent(w)
}

type policyRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description"`
	PermissionIDs []string `json:"permission_ids" validate:"dive,uuid"`
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_list_failed", "failed to list policies", requestID)
		return
	}
	api.SuccessList(w, policies, len(policies), 1, len(policies))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	policy, err := h.Store.GetPolicy(r.Context(), chi.URLParam(r, "policyID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "policy not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_get_failed", "failed to load policy", requestID)
		return
	}
	api.Success(w, policy)
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload policyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreatePolicy(r.Context(), payload.Name, payload.Description, payload.PermissionIDs)
	if err != nil {
		api.Fail(w, http.StatusConflict, "policy_create_failed", "failed to create policy", requestID)
		return
	}
	policy, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_create_failed", "failed to load created policy", requestID)
		return
	}
	api.Created(w, policy)
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload policyRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id := chi.URLParam(r, "policyID")
	err := h.Store.UpdatePolicy(r.Context(), id, payload.Name, payload.Description, payload.PermissionIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "policy not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_update_failed", "failed to update policy", requestID)
		return
	}
	policy, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_update_failed", "failed to load updated policy", requestID)
		return
	}
	api.Success(w, policy)
}

func (h *Handler) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeletePolicy(r.Context(), chi.URLParam(r, "policyID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_delete_failed", "failed to delete policy", requestID)
		return
	}
	api.NoContent(w)
}

type permissionRequest struct {
	Collection string            `json:"collection" validate:"required"`
	Action     string            `json:"action" validate:"required"`
	Fields     []string          `json:"fields"`
	Conditions map[string]string `json:"conditions"`
}

func (h *Handler) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	permissions, err := h.Store.ListPermissions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_list_failed", "failed to list permissions", requestID)
		return
	}
	api.SuccessList(w, permissions, len(permissions), 1, len(permissions))
}

func (h *Handler) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	permission, err := h.Store.GetPermission(r.Context(), chi.URLParam(r, "permissionID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "permission not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_get_failed", "failed to load permission", requestID)
		return
	}
	api.Success(w, permission)
}

func (h *Handler) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreatePermission(r.Context(), access.Permission{
		Collection: payload.Collection,
		Action:     payload.Action,
		Fields:     payload.Fields,
		Conditions: payload.Conditions,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "permission_create_failed", "failed to create permission", requestID)
		return
	}
	permission, err := h.Store.GetPermission(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_create_failed", "failed to load created permission", requestID)
		return
	}
	api.Created(w, permission)
}

func (h *Handler) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id := chi.URLParam(r, "permissionID")
	err := h.Store.UpdatePermission(r.Context(), id, access.Permission{
		Collection: payload.Collection,
		Action:     payload.Action,
		Fields:     payload.Fields,
		Conditions: payload.Conditions,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "permission not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_update_failed", "failed to update permission", requestID)
		return
	}
	permission, err := h.Store.GetPermission(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_update_failed", "failed to load updated permission", requestID)
		return
	}
	api.Success(w, permission)
}

func (h *Handler) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeletePermission(r.Context(), chi.URLParam(r, "permissionID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "permission_delete_failed", "failed to delete permission", requestID)
		return
	}
	api.NoContent(w)
}
