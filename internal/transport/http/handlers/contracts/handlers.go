package contractshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/contracts"
	"hrms/internal/domain/expand"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *contracts.Store
	Access   *access.Store
	Validate *shared.Validation
}

func NewHandler(store *contracts.Store, accessStore *access.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Access: accessStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionContracts, access.ActionRead, h.Access)).Get("/", h.handleList)
		r.With(middleware.Require(access.CollectionContracts, access.ActionCreate, h.Access)).Post("/", h.handleCreate)
		r.Route("/{contractID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionContracts, access.ActionRead, h.Access)).Get("/", h.handleGet)
			r.With(middleware.Require(access.CollectionContracts, access.ActionUpdate, h.Access)).Put("/", h.handleUpdate)
			r.With(middleware.Require(access.CollectionContracts, access.ActionDelete, h.Access)).Delete("/", h.handleDelete)
		})
	})
	r.Route("/salary-schemes", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionSalarySchemes, access.ActionRead, h.Access)).Get("/", h.handleListSchemes)
		r.With(middleware.Require(access.CollectionSalarySchemes, access.ActionCreate, h.Access)).Post("/", h.handleCreateScheme)
		r.With(middleware.Require(access.CollectionSalarySchemes, access.ActionRead, h.Access)).Get("/{schemeID}", h.handleGetScheme)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)

	list, total, err := h.Store.ListContracts(r.Context(), contracts.ListOptions{
		Filters:      shared.ParseFilters(r, "employee_id", "contract_type", "active"),
		Limit:        pagination.Limit,
		Offset:       pagination.Offset(),
		ExpandScheme: shared.Expanded(r, "salary_scheme"),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_list_failed", "failed to list contracts", requestID)
		return
	}
	api.SuccessList(w, list, total, pagination.Page, pagination.Limit)
}

type contractRequest struct {
	EmployeeID     string   `json:"employee_id" validate:"required,uuid"`
	ContractType   string   `json:"contract_type" validate:"required,oneof=full_time part_time contract internship"`
	StartDate      string   `json:"start_date" validate:"required"`
	EndDate        string   `json:"end_date"`
	SalarySchemeID string   `json:"salary_scheme_id"`
	BaseSalary     *float64 `json:"base_salary"`
	Active         *bool    `json:"active"`
}

func (h *Handler) decodeContract(w http.ResponseWriter, r *http.Request) (contracts.Contract, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload contractRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return contracts.Contract{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return contracts.Contract{}, false
	}

	contract := contracts.Contract{
		EmployeeID:   payload.EmployeeID,
		ContractType: payload.ContractType,
		BaseSalary:   payload.BaseSalary,
		Active:       true,
	}
	if payload.Active != nil {
		contract.Active = *payload.Active
	}
	if payload.SalarySchemeID != "" {
		contract.SalaryScheme = expand.Reference[contracts.SalaryScheme](payload.SalarySchemeID)
	}

	start, err := shared.ParseDate(payload.StartDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "start_date must be YYYY-MM-DD", requestID)
		return contracts.Contract{}, false
	}
	contract.StartDate = start
	if payload.EndDate != "" {
		end, err := shared.ParseDate(payload.EndDate)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "end_date must be YYYY-MM-DD", requestID)
			return contracts.Contract{}, false
		}
		contract.EndDate = &end
	}

	if err := contract.Validate(); err != nil {
		api.Fail(w, http.StatusBadRequest, "contract_invalid", err.Error(), requestID)
		return contracts.Contract{}, false
	}
	return contract, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	contract, ok := h.decodeContract(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreateContract(r.Context(), contract)
	if err != nil {
		api.Fail(w, http.StatusConflict, "contract_create_failed", "failed to create contract", requestID)
		return
	}
	created, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_create_failed", "failed to load created contract", requestID)
		return
	}
	api.Created(w, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	contract, err := h.Store.GetContract(r.Context(), chi.URLParam(r, "contractID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "contract not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_get_failed", "failed to load contract", requestID)
		return
	}
	api.Success(w, contract)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	contract, ok := h.decodeContract(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "contractID")
	err := h.Store.UpdateContract(r.Context(), id, contract)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "contract not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_update_failed", "failed to update contract", requestID)
		return
	}
	updated, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_update_failed", "failed to load updated contract", requestID)
		return
	}
	api.Success(w, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteContract(r.Context(), chi.URLParam(r, "contractID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "contract_delete_failed", "failed to delete contract", requestID)
		return
	}
	api.NoContent(w)
}

type schemeRequest struct {
	Name               string  `json:"name" validate:"required"`
	BaseSalary         float64 `json:"base_salary" validate:"gte=0"`
	HourlyRate         float64 `json:"hourly_rate" validate:"gte=0"`
	OvertimeMultiplier float64 `json:"overtime_multiplier" validate:"gte=0"`
}

func (h *Handler) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	schemes, err := h.Store.ListSalarySchemes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "scheme_list_failed", "failed to list salary schemes", requestID)
		return
	}
	api.SuccessList(w, schemes, len(schemes), 1, len(schemes))
}

func (h *Handler) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scheme, err := h.Store.GetSalaryScheme(r.Context(), chi.URLParam(r, "schemeID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "salary scheme not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "scheme_get_failed", "failed to load salary scheme", requestID)
		return
	}
	api.Success(w, scheme)
}

func (h *Handler) handleCreateScheme(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload schemeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreateSalaryScheme(r.Context(), contracts.SalaryScheme{
		Name:               payload.Name,
		BaseSalary:         payload.BaseSalary,
		HourlyRate:         payload.HourlyRate,
		OvertimeMultiplier: payload.OvertimeMultiplier,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "scheme_create_failed", "failed to create salary scheme", requestID)
		return
	}
	scheme, err := h.Store.GetSalaryScheme(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "scheme_create_failed", "failed to load created salary scheme", requestID)
		return
	}
	api.Created(w, scheme)
}
