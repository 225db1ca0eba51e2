package attendancehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store     *attendance.Store
	Employees *employees.Store
	Access    *access.Store
	Audit     *audit.Store
	Validate  *shared.Validation
}

func NewHandler(store *attendance.Store, empStore *employees.Store, accessStore *access.Store, auditStore *audit.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Employees: empStore, Access: accessStore, Audit: auditStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/devices", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionDevices, access.ActionRead, h.Access)).Get("/", h.handleListDevices)
		r.With(middleware.Require(access.CollectionDevices, access.ActionCreate, h.Access)).Post("/", h.handleCreateDevice)
		r.Route("/{deviceID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionDevices, access.ActionRead, h.Access)).Get("/", h.handleGetDevice)
			r.With(middleware.Require(access.CollectionDevices, access.ActionUpdate, h.Access)).Put("/", h.handleUpdateDevice)
			r.With(middleware.Require(access.CollectionDevices, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteDevice)
		})
	})

	r.Route("/attendance-logs", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionAttendanceLogs, access.ActionRead, h.Access)).Get("/", h.handleListLogs)
		r.With(middleware.Require(access.CollectionAttendanceLogs, access.ActionCreate, h.Access)).Post("/punch", h.handlePunch)
		r.With(middleware.Require(access.CollectionAttendanceLogs, access.ActionRead, h.Access)).Get("/{logID}", h.handleGetLog)
	})

	r.Route("/attendance-adjustments", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionAdjustments, access.ActionRead, h.Access)).Get("/", h.handleListAdjustments)
		r.With(middleware.Require(access.CollectionAdjustments, access.ActionCreate, h.Access)).Post("/", h.handleCreateAdjustment)
		r.Route("/{adjustmentID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionAdjustments, access.ActionRead, h.Access)).Get("/", h.handleGetAdjustment)
			r.With(middleware.Require(access.CollectionAdjustments, access.ActionUpdate, h.Access)).Put("/", h.handleUpdateAdjustment)
			r.With(middleware.Require(access.CollectionAdjustments, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteAdjustment)
			r.With(middleware.Require(access.CollectionAdjustments, access.ActionApprove, h.Access)).Patch("/approve", h.handleDecision(true))
			r.With(middleware.Require(access.CollectionAdjustments, access.ActionApprove, h.Access)).Patch("/reject", h.handleDecision(false))
		})
	})
}

type deviceRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
	Active   *bool  `json:"active"`
}

func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	devices, err := h.Store.ListDevices(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_list_failed", "failed to list devices", requestID)
		return
	}
	api.SuccessList(w, devices, len(devices), 1, len(devices))
}

func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	device, err := h.Store.GetDevice(r.Context(), chi.URLParam(r, "deviceID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "device not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_get_failed", "failed to load device", requestID)
		return
	}
	api.Success(w, device)
}

func (h *Handler) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	id, err := h.Store.CreateDevice(r.Context(), attendance.Device{
		Name:     payload.Name,
		Location: payload.Location,
		Active:   active,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_create_failed", "failed to create device", requestID)
		return
	}
	device, err := h.Store.GetDevice(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_create_failed", "failed to load created device", requestID)
		return
	}
	api.Created(w, device)
}

func (h *Handler) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}
	id := chi.URLParam(r, "deviceID")
	err := h.Store.UpdateDevice(r.Context(), id, attendance.Device{
		Name:     payload.Name,
		Location: payload.Location,
		Active:   active,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "device not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_update_failed", "failed to update device", requestID)
		return
	}
	device, err := h.Store.GetDevice(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_update_failed", "failed to load updated device", requestID)
		return
	}
	api.Success(w, device)
}

func (h *Handler) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteDevice(r.Context(), chi.URLParam(r, "deviceID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "device_delete_failed", "failed to delete device", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 50, 200)
	filters := shared.ParseFilters(r, "employee_id", "from", "to")

	opts := attendance.LogListOptions{
		EmployeeID: filters["employee_id"],
		Expand:     shared.Expanded(r, "employee"),
		Limit:      pagination.Limit,
		Offset:     pagination.Offset(),
	}
	if raw := filters["from"]; raw != "" {
		from, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD", requestID)
			return
		}
		opts.From = from
	}
	if raw := filters["to"]; raw != "" {
		to, err := shared.ParseDate(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD", requestID)
			return
		}
		opts.To = to
	}

	logs, total, err := h.Store.ListLogs(r.Context(), opts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "log_list_failed", "failed to list attendance logs", requestID)
		return
	}
	api.SuccessList(w, logs, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGetLog(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	log, err := h.Store.GetLog(r.Context(), chi.URLParam(r, "logID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "attendance log not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "log_get_failed", "failed to load attendance log", requestID)
		return
	}
	api.Success(w, log)
}

type punchRequest struct {
	CardNumber string `json:"card_number" validate:"required"`
	DeviceID   string `json:"device_id" validate:"omitempty,uuid"`
	Timestamp  string `json:"timestamp"`
}

// handlePunch records a card swipe. The first swipe of a work date
// opens the log, later swipes push clock-out forward.
func (h *Handler) handlePunch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload punchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	at := time.Now().UTC()
	if payload.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_timestamp", "timestamp must be RFC 3339", requestID)
			return
		}
		at = parsed.UTC()
	}

	card, err := h.Employees.CardByNumber(r.Context(), payload.CardNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "unknown_card", "no active card with this number", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "punch_failed", "failed to resolve card", requestID)
		return
	}

	log, err := h.Store.Punch(r.Context(), card.EmployeeID, payload.DeviceID, at)
	if errors.Is(err, attendance.ErrNoEmployee) {
		api.Fail(w, http.StatusConflict, "inactive_employee", err.Error(), requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "punch_failed", "failed to record punch", requestID)
		return
	}
	api.Success(w, log)
}

func (h *Handler) handleListAdjustments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)
	filters := shared.ParseFilters(r, "employee_id", "status")

	adjustments, total, err := h.Store.ListAdjustments(r.Context(), attendance.AdjustmentListOptions{
		EmployeeID: filters["employee_id"],
		Status:     filters["status"],
		Expand:     shared.Expanded(r, "employee"),
		Limit:      pagination.Limit,
		Offset:     pagination.Offset(),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_list_failed", "failed to list adjustments", requestID)
		return
	}
	api.SuccessList(w, adjustments, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGetAdjustment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	adjustment, err := h.Store.GetAdjustment(r.Context(), chi.URLParam(r, "adjustmentID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "adjustment not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_get_failed", "failed to load adjustment", requestID)
		return
	}
	api.Success(w, adjustment)
}

type adjustmentRequest struct {
	EmployeeID       string `json:"employee_id"`
	WorkDate         string `json:"work_date" validate:"required"`
	ProposedClockIn  string `json:"proposed_clock_in"`
	ProposedClockOut string `json:"proposed_clock_out"`
	Reason           string `json:"reason" validate:"required"`
}

func (h *Handler) decodeAdjustment(w http.ResponseWriter, r *http.Request) (attendance.Adjustment, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return attendance.Adjustment{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return attendance.Adjustment{}, false
	}
	if payload.ProposedClockIn == "" && payload.ProposedClockOut == "" {
		api.Fail(w, http.StatusBadRequest, "empty_proposal", "at least one proposed clock value is required", requestID)
		return attendance.Adjustment{}, false
	}

	workDate, err := shared.ParseDate(payload.WorkDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "work_date must be YYYY-MM-DD", requestID)
		return attendance.Adjustment{}, false
	}

	adjustment := attendance.Adjustment{WorkDate: workDate, Reason: payload.Reason}
	if payload.ProposedClockIn != "" {
		in, err := time.Parse(time.RFC3339, payload.ProposedClockIn)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_timestamp", "proposed_clock_in must be RFC 3339", requestID)
			return attendance.Adjustment{}, false
		}
		in = in.UTC()
		adjustment.ProposedClockIn = &in
	}
	if payload.ProposedClockOut != "" {
		out, err := time.Parse(time.RFC3339, payload.ProposedClockOut)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_timestamp", "proposed_clock_out must be RFC 3339", requestID)
			return attendance.Adjustment{}, false
		}
		out = out.UTC()
		adjustment.ProposedClockOut = &out
	}
	if adjustment.ProposedClockIn != nil && adjustment.ProposedClockOut != nil &&
		adjustment.ProposedClockOut.Before(*adjustment.ProposedClockIn) {
		api.Fail(w, http.StatusBadRequest, "inverted_interval", "proposed_clock_out precedes proposed_clock_in", requestID)
		return attendance.Adjustment{}, false
	}

	user, _ := middleware.GetUser(r.Context())
	employeeID := payload.EmployeeID
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "no_employee", "user has no linked employee record", requestID)
		return attendance.Adjustment{}, false
	}
	if employeeID != user.EmployeeID {
		allowed, err := h.Access.HasPermission(r.Context(), user.RoleID, access.CollectionAdjustments, access.ActionApprove)
		if err != nil || !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot file an adjustment for another employee", requestID)
			return attendance.Adjustment{}, false
		}
	}
	adjustment.Employee = expand.Reference[employees.Employee](employeeID)
	return adjustment, true
}

func (h *Handler) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	adjustment, ok := h.decodeAdjustment(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreateAdjustment(r.Context(), adjustment)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_create_failed", "failed to create adjustment", requestID)
		return
	}
	created, err := h.Store.GetAdjustment(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_create_failed", "failed to load created adjustment", requestID)
		return
	}
	api.Created(w, created)
}

func (h *Handler) handleUpdateAdjustment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	adjustment, ok := h.decodeAdjustment(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "adjustmentID")
	err := h.Store.UpdateAdjustment(r.Context(), id, adjustment)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "adjustment not found", requestID)
		return
	case errors.Is(err, attendance.ErrDecided):
		api.Fail(w, http.StatusConflict, "already_decided", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "adjustment_update_failed", "failed to update adjustment", requestID)
		return
	}
	updated, err := h.Store.GetAdjustment(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_update_failed", "failed to load updated adjustment", requestID)
		return
	}
	api.Success(w, updated)
}

func (h *Handler) handleDeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteAdjustment(r.Context(), chi.URLParam(r, "adjustmentID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "adjustment_delete_failed", "failed to delete adjustment", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleDecision(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		id := chi.URLParam(r, "adjustmentID")

		before, err := h.Store.GetAdjustment(r.Context(), id)
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "adjustment not found", requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "adjustment_decide_failed", "failed to load adjustment", requestID)
			return
		}

		decided, err := h.Store.Decide(r.Context(), id, approve, user.UserID)
		switch {
		case errors.Is(err, attendance.ErrDecided):
			api.Fail(w, http.StatusConflict, "already_decided", err.Error(), requestID)
			return
		case err != nil:
			api.Fail(w, http.StatusInternalServerError, "adjustment_decide_failed", "failed to decide adjustment", requestID)
			return
		}

		action := "reject"
		if approve {
			action = "approve"
		}
		_ = h.Audit.Record(r.Context(), user.UserID, action, "attendance-adjustment", id, requestID, before, decided)
		api.Success(w, decided)
	}
}
