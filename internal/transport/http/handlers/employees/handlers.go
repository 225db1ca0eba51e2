package employeeshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *employees.Store
	Access   *access.Store
	Validate *shared.Validation
}

func NewHandler(store *employees.Store, accessStore *access.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Access: accessStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionEmployees, access.ActionRead, h.Access)).Get("/", h.handleList)
		r.With(middleware.Require(access.CollectionEmployees, access.ActionCreate, h.Access)).Post("/", h.handleCreate)
		r.With(middleware.Require(access.CollectionEmployees, access.ActionCreate, h.Access)).Post("/full", h.handleCreateFull)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionEmployees, access.ActionRead, h.Access)).Get("/", h.handleGet)
			r.With(middleware.Require(access.CollectionEmployees, access.ActionUpdate, h.Access)).Put("/", h.handleUpdate)
			r.With(middleware.Require(access.CollectionEmployees, access.ActionDelete, h.Access)).Delete("/", h.handleTerminate)
		})
	})
	r.Route("/positions", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionPositions, access.ActionRead, h.Access)).Get("/", h.handleListPositions)
		r.With(middleware.Require(access.CollectionPositions, access.ActionCreate, h.Access)).Post("/", h.handleCreatePosition)
		r.Route("/{positionID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionPositions, access.ActionRead, h.Access)).Get("/", h.handleGetPosition)
			r.With(middleware.Require(access.CollectionPositions, access.ActionUpdate, h.Access)).Put("/", h.handleUpdatePosition)
			r.With(middleware.Require(access.CollectionPositions, access.ActionDelete, h.Access)).Delete("/", h.handleDeletePosition)
		})
	})
}

var sortColumns = map[string]string{
	"employee_code": "e.employee_code",
	"first_name":    "e.first_name",
	"last_name":     "e.last_name",
	"status":        "e.status",
	"created_at":    "e.created_at",
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	pagination := shared.ParsePagination(r, 20, 100)
	opts := employees.ListOptions{
		Filters:        shared.ParseFilters(r, "status", "gender", "position_id"),
		Search:         r.URL.Query().Get("search"),
		OrderBy:        shared.ParseSort(r, sortColumns, "e.employee_code"),
		Limit:          pagination.Limit,
		Offset:         pagination.Offset(),
		ExpandPosition: shared.Expanded(r, "position"),
	}

	list, total, err := h.Store.ListEmployees(r.Context(), opts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", requestID)
		return
	}
	for i := range list {
		employees.FilterFields(&list[i], user)
	}
	api.SuccessList(w, list, total, pagination.Page, pagination.Limit)
}

type employeeRequest struct {
	EmployeeCode              string `json:"employee_code" validate:"required"`
	FirstName                 string `json:"first_name" validate:"required"`
	LastName                  string `json:"last_name" validate:"required"`
	FullName                  string `json:"full_name"`
	Email                     string `json:"email" validate:"required,email"`
	Phone                     string `json:"phone"`
	Address                   string `json:"address"`
	DateOfBirth               string `json:"date_of_birth"`
	Gender                    string `json:"gender"`
	Status                    string `json:"status" validate:"omitempty,oneof=active on_leave suspended terminated"`
	PositionID                string `json:"position_id"`
	MaxHoursPerWeek           int    `json:"max_hours_per_week" validate:"gte=0"`
	MaxConsecutiveDays        int    `json:"max_consecutive_days" validate:"gte=0"`
	MinRestHoursBetweenShifts int    `json:"min_rest_hours_between_shifts" validate:"gte=0"`
}

func (p *employeeRequest) toEmployee() (employees.Employee, error) {
	emp := employees.Employee{
		EmployeeCode:              p.EmployeeCode,
		FirstName:                 p.FirstName,
		LastName:                  p.LastName,
		FullName:                  p.FullName,
		Email:                     p.Email,
		Phone:                     p.Phone,
		Address:                   p.Address,
		Gender:                    p.Gender,
		Status:                    p.Status,
		MaxHoursPerWeek:           p.MaxHoursPerWeek,
		MaxConsecutiveDays:        p.MaxConsecutiveDays,
		MinRestHoursBetweenShifts: p.MinRestHoursBetweenShifts,
	}
	if emp.Status == "" {
		emp.Status = employees.StatusActive
	}
	if emp.FullName == "" {
		emp.FullName = emp.DisplayName()
	}
	if p.PositionID != "" {
		emp.Position = expand.Reference[employees.Position](p.PositionID)
	}
	if p.DateOfBirth != "" {
		dob, err := shared.ParseDate(p.DateOfBirth)
		if err != nil {
			return employees.Employee{}, err
		}
		emp.DateOfBirth = &dob
	}
	return emp, nil
}

func (h *Handler) decodeEmployee(w http.ResponseWriter, r *http.Request) (employees.Employee, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return employees.Employee{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return employees.Employee{}, false
	}
	emp, err := payload.toEmployee()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "date_of_birth must be YYYY-MM-DD", requestID)
		return employees.Employee{}, false
	}
	return emp, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	emp, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreateEmployee(r.Context(), emp)
	if err != nil {
		api.Fail(w, http.StatusConflict, "employee_create_failed", "failed to create employee", requestID)
		return
	}
	created, err := h.Store.GetEmployee(r.Context(), id, true)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to load created employee", requestID)
		return
	}
	api.Created(w, created)
}

type fullCreateRequest struct {
	Employee   employeeRequest `json:"employee" validate:"required"`
	Username   string          `json:"username" validate:"required,min=3"`
	Password   string          `json:"password" validate:"required,min=8"`
	RoleID     string          `json:"role_id" validate:"required,uuid"`
	CardNumber string          `json:"card_number"`
}

func (h *Handler) handleCreateFull(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload fullCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}
	emp, err := payload.Employee.toEmployee()
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "date_of_birth must be YYYY-MM-DD", requestID)
		return
	}
	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to hash password", requestID)
		return
	}

	id, err := h.Store.CreateFull(r.Context(), employees.FullCreate{
		Employee:     emp,
		Username:     payload.Username,
		PasswordHash: hash,
		RoleID:       payload.RoleID,
		CardNumber:   payload.CardNumber,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "employee_create_failed", "failed to provision employee", requestID)
		return
	}
	created, err := h.Store.GetEmployee(r.Context(), id, true)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to load created employee", requestID)
		return
	}
	api.Created(w, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"), shared.Expanded(r, "position"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_get_failed", "failed to load employee", requestID)
		return
	}
	employees.FilterFields(emp, user)
	api.Success(w, emp)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	emp, ok := h.decodeEmployee(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "employeeID")
	err := h.Store.UpdateEmployee(r.Context(), id, emp)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to update employee", requestID)
		return
	}
	updated, err := h.Store.GetEmployee(r.Context(), id, true)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_update_failed", "failed to load updated employee", requestID)
		return
	}
	api.Success(w, updated)
}

func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	err := h.Store.Terminate(r.Context(), chi.URLParam(r, "employeeID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_delete_failed", "failed to terminate employee", requestID)
		return
	}
	api.NoContent(w)
}

type positionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) handleListPositions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	positions, err := h.Store.ListPositions(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_list_failed", "failed to list positions", requestID)
		return
	}
	api.SuccessList(w, positions, len(positions), 1, len(positions))
}

func (h *Handler) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	position, err := h.Store.GetPosition(r.Context(), chi.URLParam(r, "positionID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "position not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_get_failed", "failed to load position", requestID)
		return
	}
	api.Success(w, position)
}

func (h *Handler) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}
	id, err := h.Store.CreatePosition(r.Context(), payload.Name, payload.Description)
	if err != nil {
		api.Fail(w, http.StatusConflict, "position_create_failed", "failed to create position", requestID)
		return
	}
	position, err := h.Store.GetPosition(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_create_failed", "failed to load created position", requestID)
		return
	}
	api.Created(w, position)
}

func (h *Handler) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload positionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}
	id := chi.URLParam(r, "positionID")
	err := h.Store.UpdatePosition(r.Context(), id, payload.Name, payload.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "position not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_update_failed", "failed to update position", requestID)
		return
	}
	position, err := h.Store.GetPosition(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "position_update_failed", "failed to load updated position", requestID)
		return
	}
	api.Success(w, position)
}

func (h *Handler) handleDeletePosition(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeletePosition(r.Context(), chi.URLParam(r, "positionID")); err != nil {
		api.Fail(w, http.StatusConflict, "position_delete_failed", "position is still referenced", requestID)
		return
	}
	api.NoContent(w)
}
