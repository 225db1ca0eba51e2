package schedulinghandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
	"hrms/internal/domain/scheduling"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *scheduling.Store
	Service  *scheduling.Service
	Access   *access.Store
	Audit    *audit.Store
	Validate *shared.Validation
}

func NewHandler(store *scheduling.Store, service *scheduling.Service, accessStore *access.Store, auditStore *audit.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Service: service, Access: accessStore, Audit: auditStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/shift-types", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionShiftTypes, access.ActionRead, h.Access)).Get("/", h.handleListShiftTypes)
		r.With(middleware.Require(access.CollectionShiftTypes, access.ActionCreate, h.Access)).Post("/", h.handleCreateShiftType)
		r.Route("/{shiftTypeID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionShiftTypes, access.ActionRead, h.Access)).Get("/", h.handleGetShiftType)
			r.With(middleware.Require(access.CollectionShiftTypes, access.ActionUpdate, h.Access)).Put("/", h.handleUpdateShiftType)
			r.With(middleware.Require(access.CollectionShiftTypes, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteShiftType)
		})
	})

	r.Route("/weekly-schedules", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionRead, h.Access)).Get("/", h.handleListSchedules)
		r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionCreate, h.Access)).Post("/", h.handleCreateSchedule)
		r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionCreate, h.Access)).Post("/with-shifts", h.handleCreateScheduleWithShifts)
		r.Route("/{scheduleID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionRead, h.Access)).Get("/", h.handleGetSchedule)
			r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteSchedule)
			r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionRead, h.Access)).Get("/readiness", h.handleReadiness)
			r.With(middleware.Require(access.CollectionWeeklySchedules, access.ActionPublish, h.Access)).Post("/publish", h.handlePublish)
			r.With(middleware.Require(access.CollectionAssignments, access.ActionCreate, h.Access)).Post("/auto-schedule", h.handleAutoSchedule)
		})
	})

	r.Route("/shifts", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionShifts, access.ActionRead, h.Access)).Get("/", h.handleListShifts)
		r.With(middleware.Require(access.CollectionShifts, access.ActionCreate, h.Access)).Post("/", h.handleCreateShift)
		r.Route("/{shiftID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionShifts, access.ActionRead, h.Access)).Get("/", h.handleGetShift)
			r.With(middleware.Require(access.CollectionShifts, access.ActionUpdate, h.Access)).Put("/", h.handleUpdateShift)
			r.With(middleware.Require(access.CollectionShifts, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteShift)
		})
	})

	r.Route("/shift-position-requirements", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionRequirements, access.ActionRead, h.Access)).Get("/", h.handleListRequirements)
		r.With(middleware.Require(access.CollectionRequirements, access.ActionCreate, h.Access)).Post("/", h.handleCreateRequirement)
		r.Route("/{requirementID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionRequirements, access.ActionRead, h.Access)).Get("/", h.handleGetRequirement)
			r.With(middleware.Require(access.CollectionRequirements, access.ActionUpdate, h.Access)).Patch("/", h.handleUpdateRequirement)
			r.With(middleware.Require(access.CollectionRequirements, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteRequirement)
		})
	})

	r.Route("/employee-availability", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionAvailability, access.ActionRead, h.Access)).Get("/", h.handleListAvailability)
		r.With(middleware.Require(access.CollectionAvailability, access.ActionCreate, h.Access)).Post("/", h.handleCreateAvailability)
		r.With(middleware.Require(access.CollectionAvailability, access.ActionDelete, h.Access)).Delete("/{availabilityID}", h.handleDeleteAvailability)
	})

	r.Route("/schedule-assignments", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionAssignments, access.ActionRead, h.Access)).Get("/", h.handleListAssignments)
		r.With(middleware.Require(access.CollectionAssignments, access.ActionCreate, h.Access)).Post("/", h.handleCreateAssignment)
		r.Route("/{assignmentID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionAssignments, access.ActionRead, h.Access)).Get("/", h.handleGetAssignment)
			r.With(middleware.Require(access.CollectionAssignments, access.ActionDelete, h.Access)).Delete("/", h.handleDeleteAssignment)
		})
	})
}

type shiftTypeRequest struct {
	Name          string `json:"name" validate:"required"`
	StartTime     string `json:"start_time" validate:"required,len=5"`
	EndTime       string `json:"end_time" validate:"required,len=5"`
	CrossMidnight bool   `json:"cross_midnight"`
}

func (h *Handler) handleListShiftTypes(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	types, err := h.Store.ListShiftTypes(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_type_list_failed", "failed to list shift types", requestID)
		return
	}
	api.SuccessList(w, types, len(types), 1, len(types))
}

func (h *Handler) handleGetShiftType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	st, err := h.Store.GetShiftType(r.Context(), chi.URLParam(r, "shiftTypeID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "shift type not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_type_get_failed", "failed to load shift type", requestID)
		return
	}
	api.Success(w, st)
}

func (h *Handler) handleCreateShiftType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload shiftTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreateShiftType(r.Context(), scheduling.ShiftType{
		Name:          payload.Name,
		StartTime:     payload.StartTime,
		EndTime:       payload.EndTime,
		CrossMidnight: payload.CrossMidnight,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "shift_type_create_failed", "failed to create shift type", requestID)
		return
	}
	st, err := h.Store.GetShiftType(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_type_create_failed", "failed to load created shift type", requestID)
		return
	}
	api.Created(w, st)
}

func (h *Handler) handleUpdateShiftType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload shiftTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id := chi.URLParam(r, "shiftTypeID")
	err := h.Store.UpdateShiftType(r.Context(), id, scheduling.ShiftType{
		Name:          payload.Name,
		StartTime:     payload.StartTime,
		EndTime:       payload.EndTime,
		CrossMidnight: payload.CrossMidnight,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "shift type not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_type_update_failed", "failed to update shift type", requestID)
		return
	}
	st, err := h.Store.GetShiftType(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_type_update_failed", "failed to load updated shift type", requestID)
		return
	}
	api.Success(w, st)
}

func (h *Handler) handleDeleteShiftType(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteShiftType(r.Context(), chi.URLParam(r, "shiftTypeID")); err != nil {
		api.Fail(w, http.StatusConflict, "shift_type_delete_failed", "shift type is still referenced", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)
	status := shared.ParseFilters(r, "status")["status"]

	schedules, total, err := h.Store.ListSchedules(r.Context(), status, pagination.Limit, pagination.Offset())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_list_failed", "failed to list schedules", requestID)
		return
	}
	api.SuccessList(w, schedules, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	schedule, err := h.Store.GetSchedule(r.Context(), chi.URLParam(r, "scheduleID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "schedule not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_get_failed", "failed to load schedule", requestID)
		return
	}
	api.Success(w, schedule)
}

type scheduleRequest struct {
	WeekStart string `json:"week_start" validate:"required"`
	WeekEnd   string `json:"week_end" validate:"required"`
}

type scheduleWithShiftsRequest struct {
	WeekStart string `json:"week_start" validate:"required"`
	WeekEnd   string `json:"week_end" validate:"required"`
	Shifts    []struct {
		ShiftTypeID   string `json:"shift_type_id" validate:"required,uuid"`
		ShiftDate     string `json:"shift_date" validate:"required"`
		TotalRequired int    `json:"total_required" validate:"gte=0"`
	} `json:"shifts" validate:"required,min=1,dive"`
}

func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}
	weekStart, err := shared.ParseDate(payload.WeekStart)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "week_start must be YYYY-MM-DD", requestID)
		return
	}
	weekEnd, err := shared.ParseDate(payload.WeekEnd)
	if err != nil || weekEnd.Before(weekStart) {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "week_end must be YYYY-MM-DD on or after week_start", requestID)
		return
	}

	id, err := h.Store.CreateSchedule(r.Context(), weekStart, weekEnd)
	if err != nil {
		api.Fail(w, http.StatusConflict, "schedule_create_failed", "week already has a schedule", requestID)
		return
	}
	schedule, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_create_failed", "failed to load created schedule", requestID)
		return
	}
	api.Created(w, schedule)
}

func (h *Handler) handleCreateScheduleWithShifts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload scheduleWithShiftsRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}
	weekStart, err := shared.ParseDate(payload.WeekStart)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "week_start must be YYYY-MM-DD", requestID)
		return
	}
	weekEnd, err := shared.ParseDate(payload.WeekEnd)
	if err != nil || weekEnd.Before(weekStart) {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "week_end must be YYYY-MM-DD on or after week_start", requestID)
		return
	}

	seeds := make([]scheduling.ShiftSeed, 0, len(payload.Shifts))
	for _, seed := range payload.Shifts {
		date, err := shared.ParseDate(seed.ShiftDate)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "shift_date must be YYYY-MM-DD", requestID)
			return
		}
		if date.Before(weekStart) || date.After(weekEnd) {
			api.Fail(w, http.StatusBadRequest, "shift_out_of_week", "shift_date falls outside the schedule week", requestID)
			return
		}
		seeds = append(seeds, scheduling.ShiftSeed{
			ShiftTypeID:   seed.ShiftTypeID,
			ShiftDate:     date,
			TotalRequired: seed.TotalRequired,
		})
	}

	id, err := h.Store.CreateScheduleWithShifts(r.Context(), weekStart, weekEnd, seeds)
	if err != nil {
		api.Fail(w, http.StatusConflict, "schedule_create_failed", "week already has a schedule", requestID)
		return
	}
	schedule, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_create_failed", "failed to load created schedule", requestID)
		return
	}
	api.Created(w, schedule)
}

func (h *Handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteSchedule(r.Context(), chi.URLParam(r, "scheduleID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_delete_failed", "failed to delete schedule", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	readiness, err := h.Service.Readiness(r.Context(), chi.URLParam(r, "scheduleID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "schedule not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "readiness_failed", "failed to compute readiness", requestID)
		return
	}
	api.Success(w, readiness)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	scheduleID := chi.URLParam(r, "scheduleID")

	schedule, err := h.Service.Publish(r.Context(), scheduleID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "schedule not found", requestID)
		return
	case errors.Is(err, scheduling.ErrAlreadyPublished):
		api.Fail(w, http.StatusConflict, "already_published", "schedule is already published", requestID)
		return
	case errors.Is(err, scheduling.ErrNotPublishable):
		api.Fail(w, http.StatusConflict, "below_threshold", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "publish_failed", "failed to publish schedule", requestID)
		return
	}

	_ = h.Audit.Record(r.Context(), user.UserID, "publish", "weekly-schedule", scheduleID, requestID, nil, schedule)
	api.Success(w, schedule)
}

type autoScheduleRequest struct {
	OverwriteExisting bool `json:"overwrite_existing"`
}

func (h *Handler) handleAutoSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	scheduleID := chi.URLParam(r, "scheduleID")

	var payload autoScheduleRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}
	}

	result, err := h.Service.AutoSchedule(r.Context(), scheduleID, payload.OverwriteExisting)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "schedule not found", requestID)
		return
	case errors.Is(err, scheduling.ErrAlreadyPublished):
		api.Fail(w, http.StatusConflict, "already_published", "published schedules cannot be rescheduled", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "auto_schedule_failed", "failed to run auto-schedule", requestID)
		return
	}

	_ = h.Audit.Record(r.Context(), user.UserID, "auto-schedule", "weekly-schedule", scheduleID, requestID, nil, result)
	api.Success(w, result)
}

type shiftRequest struct {
	ScheduleID    string `json:"schedule_id"`
	ShiftTypeID   string `json:"shift_type_id"`
	ShiftDate     string `json:"shift_date" validate:"required"`
	TotalRequired int    `json:"total_required" validate:"gte=0"`
}

func (h *Handler) decodeShift(w http.ResponseWriter, r *http.Request) (scheduling.Shift, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return scheduling.Shift{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return scheduling.Shift{}, false
	}
	date, err := shared.ParseDate(payload.ShiftDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "shift_date must be YYYY-MM-DD", requestID)
		return scheduling.Shift{}, false
	}

	shift := scheduling.Shift{
		ScheduleID:    payload.ScheduleID,
		ShiftDate:     date,
		TotalRequired: payload.TotalRequired,
	}
	if payload.ShiftTypeID != "" {
		shift.ShiftType = expand.Reference[scheduling.ShiftType](payload.ShiftTypeID)
	}
	return shift, true
}

func (h *Handler) handleListShifts(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 50, 200)
	filters := shared.ParseFilters(r, "schedule_id", "date")

	shifts, total, err := h.Store.ListShifts(r.Context(), scheduling.ShiftListOptions{
		ScheduleID: filters["schedule_id"],
		Date:       filters["date"],
		ExpandType: shared.Expanded(r, "shift_type"),
		Limit:      pagination.Limit,
		Offset:     pagination.Offset(),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_list_failed", "failed to list shifts", requestID)
		return
	}
	api.SuccessList(w, shifts, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGetShift(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	shift, err := h.Store.GetShift(r.Context(), chi.URLParam(r, "shiftID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "shift not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_get_failed", "failed to load shift", requestID)
		return
	}
	api.Success(w, shift)
}

func (h *Handler) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	shift, ok := h.decodeShift(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreateShift(r.Context(), shift)
	if err != nil {
		api.Fail(w, http.StatusConflict, "shift_create_failed", "failed to create shift", requestID)
		return
	}
	created, err := h.Store.GetShift(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_create_failed", "failed to load created shift", requestID)
		return
	}
	api.Created(w, created)
}

func (h *Handler) handleUpdateShift(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	shift, ok := h.decodeShift(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "shiftID")
	err := h.Store.UpdateShift(r.Context(), id, shift)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "shift not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_update_failed", "failed to update shift", requestID)
		return
	}
	updated, err := h.Store.GetShift(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_update_failed", "failed to load updated shift", requestID)
		return
	}
	api.Success(w, updated)
}

func (h *Handler) handleDeleteShift(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteShift(r.Context(), chi.URLParam(r, "shiftID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "shift_delete_failed", "failed to delete shift", requestID)
		return
	}
	api.NoContent(w)
}

type requirementRequest struct {
	ShiftID       string `json:"shift_id" validate:"required,uuid"`
	PositionID    string `json:"position_id" validate:"required,uuid"`
	RequiredCount int    `json:"required_count" validate:"gte=1"`
}

func (h *Handler) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	filters := shared.ParseFilters(r, "shift_id", "schedule_id")

	requirements, err := h.Store.ListRequirements(r.Context(), filters["shift_id"], filters["schedule_id"], shared.Expanded(r, "position"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_list_failed", "failed to list requirements", requestID)
		return
	}
	api.SuccessList(w, requirements, len(requirements), 1, len(requirements))
}

func (h *Handler) handleGetRequirement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	requirement, err := h.Store.GetRequirement(r.Context(), chi.URLParam(r, "requirementID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "requirement not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_get_failed", "failed to load requirement", requestID)
		return
	}
	api.Success(w, requirement)
}

func (h *Handler) handleCreateRequirement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload requirementRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Store.CreateRequirement(r.Context(), scheduling.PositionRequirement{
		ShiftID:       payload.ShiftID,
		Position:      expand.Reference[employees.Position](payload.PositionID),
		RequiredCount: payload.RequiredCount,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "requirement_create_failed", "shift already has a requirement for this position", requestID)
		return
	}
	requirement, err := h.Store.GetRequirement(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_create_failed", "failed to load created requirement", requestID)
		return
	}
	api.Created(w, requirement)
}

type requirementUpdateRequest struct {
	RequiredCount int `json:"required_count" validate:"gte=1"`
}

func (h *Handler) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload requirementUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id := chi.URLParam(r, "requirementID")
	err := h.Store.UpdateRequirement(r.Context(), id, payload.RequiredCount)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "requirement not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_update_failed", "failed to update requirement", requestID)
		return
	}
	requirement, err := h.Store.GetRequirement(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_update_failed", "failed to load updated requirement", requestID)
		return
	}
	api.Success(w, requirement)
}

func (h *Handler) handleDeleteRequirement(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteRequirement(r.Context(), chi.URLParam(r, "requirementID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "requirement_delete_failed", "failed to delete requirement", requestID)
		return
	}
	api.NoContent(w)
}

type availabilityRequest struct {
	ShiftID     string   `json:"shift_id" validate:"required,uuid"`
	EmployeeID  string   `json:"employee_id"`
	Note        string   `json:"note"`
	PositionIDs []string `json:"position_ids" validate:"dive,uuid"`
}

func (h *Handler) handleListAvailability(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	filters := shared.ParseFilters(r, "shift_id", "employee_id", "schedule_id")

	availability, err := h.Store.ListAvailability(r.Context(), filters["shift_id"], filters["employee_id"], filters["schedule_id"])
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "availability_list_failed", "failed to list availability", requestID)
		return
	}
	api.SuccessList(w, availability, len(availability), 1, len(availability))
}

// handleCreateAvailability registers willingness to work a shift. A
// missing employee_id means "myself"; registering someone else needs
// the update grant on the collection.
func (h *Handler) handleCreateAvailability(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	employeeID := payload.EmployeeID
	if employeeID == "" {
		employeeID = user.EmployeeID
	}
	if employeeID == "" {
		api.Fail(w, http.StatusBadRequest, "no_employee", "user has no linked employee record", requestID)
		return
	}
	if employeeID != user.EmployeeID {
		allowed, err := h.Access.HasPermission(r.Context(), user.RoleID, access.CollectionAvailability, access.ActionUpdate)
		if err != nil || !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot register availability for another employee", requestID)
			return
		}
	}

	id, err := h.Store.CreateAvailability(r.Context(), scheduling.Availability{
		ShiftID:     payload.ShiftID,
		EmployeeID:  employeeID,
		Note:        payload.Note,
		PositionIDs: payload.PositionIDs,
	})
	if err != nil {
		api.Fail(w, http.StatusConflict, "availability_exists", "employee already registered for this shift", requestID)
		return
	}
	availability, err := h.Store.GetAvailability(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "availability_create_failed", "failed to load created availability", requestID)
		return
	}
	api.Created(w, availability)
}

func (h *Handler) handleDeleteAvailability(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "availabilityID")

	availability, err := h.Store.GetAvailability(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "availability not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "availability_delete_failed", "failed to load availability", requestID)
		return
	}
	if availability.EmployeeID != user.EmployeeID {
		allowed, err := h.Access.HasPermission(r.Context(), user.RoleID, access.CollectionAvailability, access.ActionUpdate)
		if err != nil || !allowed {
			api.Fail(w, http.StatusForbidden, "forbidden", "cannot remove another employee's availability", requestID)
			return
		}
	}

	if err := h.Store.DeleteAvailability(r.Context(), id); err != nil {
		api.Fail(w, http.StatusInternalServerError, "availability_delete_failed", "failed to delete availability", requestID)
		return
	}
	api.NoContent(w)
}

type assignmentRequest struct {
	ShiftID    string `json:"shift_id" validate:"required,uuid"`
	PositionID string `json:"position_id" validate:"required,uuid"`
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
}

func (h *Handler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	filters := shared.ParseFilters(r, "shift_id", "schedule_id", "employee_id")

	assignments, err := h.Store.ListAssignments(r.Context(), scheduling.AssignmentListOptions{
		ShiftID:    filters["shift_id"],
		ScheduleID: filters["schedule_id"],
		EmployeeID: filters["employee_id"],
		Expand:     shared.Expanded(r, "employee") || shared.Expanded(r, "position"),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_list_failed", "failed to list assignments", requestID)
		return
	}
	api.SuccessList(w, assignments, len(assignments), 1, len(assignments))
}

func (h *Handler) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	assignment, err := h.Store.GetAssignment(r.Context(), chi.URLParam(r, "assignmentID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_get_failed", "failed to load assignment", requestID)
		return
	}
	api.Success(w, assignment)
}

func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	id, err := h.Service.Assign(r.Context(), scheduling.Assignment{
		ShiftID:    payload.ShiftID,
		Position:   expand.Reference[employees.Position](payload.PositionID),
		Employee:   expand.Reference[employees.Employee](payload.EmployeeID),
		Status:     scheduling.AssignmentStatusAssigned,
		Source:     scheduling.SourceManual,
		AssignedBy: user.UserID,
	})
	switch {
	case errors.Is(err, scheduling.ErrNoAvailability):
		api.Fail(w, http.StatusConflict, "availability_required", err.Error(), requestID)
		return
	case errors.Is(err, scheduling.ErrPositionNotCovered):
		api.Fail(w, http.StatusConflict, "position_not_covered", err.Error(), requestID)
		return
	case errors.Is(err, scheduling.ErrAlreadyAssigned):
		api.Fail(w, http.StatusConflict, "already_assigned", err.Error(), requestID)
		return
	case errors.Is(err, scheduling.ErrNoRequirement):
		api.Fail(w, http.StatusConflict, "no_requirement", err.Error(), requestID)
		return
	case errors.Is(err, scheduling.ErrSlotFull):
		api.Fail(w, http.StatusConflict, "slot_full", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "assignment_create_failed", "failed to create assignment", requestID)
		return
	}

	assignment, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_create_failed", "failed to load created assignment", requestID)
		return
	}
	api.Created(w, assignment)
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	err := h.Service.Unassign(r.Context(), chi.URLParam(r, "assignmentID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "assignment not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "assignment_delete_failed", "failed to delete assignment", requestID)
		return
	}
	api.NoContent(w)
}
