package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store    *payroll.Store
	Service  *payroll.Service
	Access   *access.Store
	Audit    *audit.Store
	Validate *shared.Validation
}

func NewHandler(store *payroll.Store, service *payroll.Service, accessStore *access.Store, auditStore *audit.Store, validate *shared.Validation) *Handler {
	return &Handler{Store: store, Service: service, Access: accessStore, Audit: auditStore, Validate: validate}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/monthly-payrolls", func(r chi.Router) {
		r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionRead, h.Access)).Get("/", h.handleList)
		r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionCreate, h.Access)).Post("/", h.handleCreate)
		r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionCreate, h.Access)).Post("/generate", h.handleGenerate)
		r.Route("/{payrollID}", func(r chi.Router) {
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionRead, h.Access)).Get("/", h.handleGet)
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionUpdate, h.Access)).Put("/", h.handleUpdate)
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionDelete, h.Access)).Delete("/", h.handleDelete)
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionUpdate, h.Access)).Patch("/submit", h.handleTransition(payroll.StatusPendingApproval, "submit"))
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionApprove, h.Access)).Patch("/approve", h.handleTransition(payroll.StatusApproved, "approve"))
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionApprove, h.Access)).Patch("/pay", h.handleTransition(payroll.StatusPaid, "pay"))
			r.With(middleware.Require(access.CollectionMonthlyPayrolls, access.ActionRead, h.Access)).Get("/payslip", h.handlePayslip)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	pagination := shared.ParsePagination(r, 20, 100)
	filters := shared.ParseFilters(r, "employee_id", "status", "year", "month")

	opts := payroll.ListOptions{
		EmployeeID: filters["employee_id"],
		Status:     filters["status"],
		Expand:     shared.Expanded(r, "employee"),
		Limit:      pagination.Limit,
		Offset:     pagination.Offset(),
	}
	if raw := filters["year"]; raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "year must be an integer", requestID)
			return
		}
		opts.Year = year
	}
	if raw := filters["month"]; raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "month must be an integer", requestID)
			return
		}
		opts.Month = month
	}

	payrolls, total, err := h.Store.ListPayrolls(r.Context(), opts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payrolls", requestID)
		return
	}
	api.SuccessList(w, payrolls, total, pagination.Page, pagination.Limit)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p, err := h.Store.GetPayroll(r.Context(), chi.URLParam(r, "payrollID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_get_failed", "failed to load payroll", requestID)
		return
	}
	api.Success(w, p)
}

type payrollRequest struct {
	EmployeeID  string  `json:"employee_id" validate:"required,uuid"`
	PeriodYear  int     `json:"period_year" validate:"required"`
	PeriodMonth int     `json:"period_month" validate:"required"`
	BaseSalary  float64 `json:"base_salary" validate:"gte=0"`
	Allowance   float64 `json:"allowance" validate:"gte=0"`
	Bonus       float64 `json:"bonus" validate:"gte=0"`
	OvertimePay float64 `json:"overtime_pay" validate:"gte=0"`
	Deduction   float64 `json:"deduction" validate:"gte=0"`
	Penalty     float64 `json:"penalty" validate:"gte=0"`
}

func (h *Handler) decodePayroll(w http.ResponseWriter, r *http.Request) (payroll.Payroll, bool) {
	requestID := middleware.GetRequestID(r.Context())
	var payload payrollRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return payroll.Payroll{}, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return payroll.Payroll{}, false
	}
	period := payroll.Period{Year: payload.PeriodYear, Month: payload.PeriodMonth}
	if err := period.Validate(); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), requestID)
		return payroll.Payroll{}, false
	}

	return payroll.Payroll{
		Employee:    expand.Reference[employees.Employee](payload.EmployeeID),
		PeriodYear:  payload.PeriodYear,
		PeriodMonth: payload.PeriodMonth,
		BaseSalary:  payload.BaseSalary,
		Allowance:   payload.Allowance,
		Bonus:       payload.Bonus,
		OvertimePay: payload.OvertimePay,
		Deduction:   payload.Deduction,
		Penalty:     payload.Penalty,
	}, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p, ok := h.decodePayroll(w, r)
	if !ok {
		return
	}

	id, err := h.Store.CreatePayroll(r.Context(), p)
	if err != nil {
		api.Fail(w, http.StatusConflict, "payroll_create_failed", "employee already has a payroll for this period", requestID)
		return
	}
	created, err := h.Store.GetPayroll(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_create_failed", "failed to load created payroll", requestID)
		return
	}
	api.Created(w, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	p, ok := h.decodePayroll(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "payrollID")
	err := h.Store.UpdatePayroll(r.Context(), id, p)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
		return
	case errors.Is(err, payroll.ErrNotDraft):
		api.Fail(w, http.StatusConflict, "not_draft", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_update_failed", "failed to update payroll", requestID)
		return
	}
	updated, err := h.Store.GetPayroll(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_update_failed", "failed to load updated payroll", requestID)
		return
	}
	api.Success(w, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	err := h.Store.DeletePayroll(r.Context(), chi.URLParam(r, "payrollID"))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
		return
	case errors.Is(err, payroll.ErrNotDraft):
		api.Fail(w, http.StatusConflict, "not_draft", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_delete_failed", "failed to delete payroll", requestID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleTransition(to, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		id := chi.URLParam(r, "payrollID")

		before, err := h.Store.GetPayroll(r.Context(), id)
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
			return
		}
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "payroll_transition_failed", "failed to load payroll", requestID)
			return
		}

		p, err := h.Store.Transition(r.Context(), id, to)
		switch {
		case errors.Is(err, payroll.ErrBadTransition):
			api.Fail(w, http.StatusConflict, "bad_transition", fmt.Sprintf("cannot %s a %s payroll", action, before.Status), requestID)
			return
		case err != nil:
			api.Fail(w, http.StatusInternalServerError, "payroll_transition_failed", "failed to change payroll status", requestID)
			return
		}

		_ = h.Audit.Record(r.Context(), user.UserID, action, "monthly-payroll", id, requestID, before, p)
		api.Success(w, p)
	}
}

type generateRequest struct {
	Year  int `json:"year" validate:"required"`
	Month int `json:"month" validate:"required"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	}

	period := payroll.Period{Year: payload.Year, Month: payload.Month}
	result, err := h.Service.Generate(r.Context(), period)
	switch {
	case errors.Is(err, payroll.ErrBadPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payroll_generate_failed", "failed to generate payrolls", requestID)
		return
	}

	_ = h.Audit.Record(r.Context(), user.UserID, "generate", "monthly-payroll", period.String(), requestID, nil, result)
	api.Success(w, result)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "payrollID")

	p, err := h.Store.GetPayroll(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to load payroll", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payslip-%d-%02d-%s.pdf"`, p.PeriodYear, p.PeriodMonth, id))
	if err := payroll.WritePayslipPDF(w, p); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}
