package contracts

import (
	"errors"
	"time"

	"hrms/internal/domain/expand"
)

const (
	TypeFullTime   = "full_time"
	TypePartTime   = "part_time"
	TypeContract   = "contract"
	TypeInternship = "internship"
)

var Types = []string{TypeFullTime, TypePartTime, TypeContract, TypeInternship}

var (
	ErrSalaryConflict = errors.New("contract carries both a salary scheme and a manual base salary")
	ErrNoSalary       = errors.New("contract needs either a salary scheme or a base salary")
	ErrBadDateRange   = errors.New("contract end date precedes start date")
)

type SalaryScheme struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	BaseSalary         float64   `json:"base_salary"`
	HourlyRate         float64   `json:"hourly_rate"`
	OvertimeMultiplier float64   `json:"overtime_multiplier"`
	CreatedAt          time.Time `json:"created_at"`
}

type Contract struct {
	ID           string                   `json:"id"`
	EmployeeID   string                   `json:"employee_id"`
	ContractType string                   `json:"contract_type"`
	StartDate    time.Time                `json:"start_date"`
	EndDate      *time.Time               `json:"end_date,omitempty"`
	SalaryScheme expand.Ref[SalaryScheme] `json:"salary_scheme,omitempty"`
	BaseSalary   *float64                 `json:"base_salary,omitempty"`
	Active       bool                     `json:"active"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// Validate enforces the scheme-or-override rule: a salary scheme and a
// manual base salary are mutually exclusive, and one must be present.
func (c *Contract) Validate() error {
	hasScheme := !c.SalaryScheme.IsZero()
	hasOverride := c.BaseSalary != nil
	if hasScheme && hasOverride {
		return ErrSalaryConflict
	}
	if !hasScheme && !hasOverride {
		return ErrNoSalary
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return ErrBadDateRange
	}
	return nil
}

// EffectiveBaseSalary resolves the pay base: scheme rate when a scheme
// is attached, manual override otherwise.
func (c *Contract) EffectiveBaseSalary() float64 {
	if scheme, ok := c.SalaryScheme.Record(); ok {
		return scheme.BaseSalary
	}
	if c.BaseSalary != nil {
		return *c.BaseSalary
	}
	return 0
}

// Overlaps reports whether two date ranges intersect; open-ended
// contracts extend indefinitely.
func (c *Contract) Overlaps(other *Contract) bool {
	if other.EndDate != nil && other.EndDate.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(other.StartDate) {
		return false
	}
	return true
}
