package payroll

import (
	"errors"
	"fmt"
	"time"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusPaid            = "paid"
)

var (
	ErrBadTransition = errors.New("payroll status transition is not allowed")
	ErrBadPeriod     = errors.New("payroll period is out of range")
	ErrNotDraft      = errors.New("only draft payrolls can be edited")
)

// transitions is the forward-only status flow; each status has exactly
// one legal successor.
var transitions = map[string]string{
	StatusDraft:           StatusPendingApproval,
	StatusPendingApproval: StatusApproved,
	StatusApproved:        StatusPaid,
}

// CanTransition reports whether from → to is a legal single step.
func CanTransition(from, to string) bool {
	return transitions[from] == to
}

type Payroll struct {
	ID          string                         `json:"id"`
	Employee    expand.Ref[employees.Employee] `json:"employee"`
	PeriodYear  int                            `json:"period_year"`
	PeriodMonth int                            `json:"period_month"`
	BaseSalary  float64                        `json:"base_salary"`
	Allowance   float64                        `json:"allowance"`
	Bonus       float64                        `json:"bonus"`
	OvertimePay float64                        `json:"overtime_pay"`
	Deduction   float64                        `json:"deduction"`
	Penalty     float64                        `json:"penalty"`
	GrossSalary float64                        `json:"gross_salary"`
	NetSalary   float64                        `json:"net_salary"`
	Status      string                         `json:"status"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
}

// Period is one payroll month.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 || p.Year < 2000 || p.Year > 2200 {
		return fmt.Errorf("%w: %d-%02d", ErrBadPeriod, p.Year, p.Month)
	}
	return nil
}

// Bounds returns the first and last day of the period.
func (p Period) Bounds() (time.Time, time.Time) {
	first := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}
