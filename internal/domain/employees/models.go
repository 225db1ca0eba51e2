package employees

import (
	"net/url"
	"strings"
	"time"

	"hrms/internal/domain/expand"
)

const (
	StatusActive     = "active"
	StatusOnLeave    = "on_leave"
	StatusSuspended  = "suspended"
	StatusTerminated = "terminated"
)

var Statuses = []string{StatusActive, StatusOnLeave, StatusSuspended, StatusTerminated}

type Position struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Employee struct {
	ID                        string               `json:"id"`
	EmployeeCode              string               `json:"employee_code"`
	FirstName                 string               `json:"first_name"`
	LastName                  string               `json:"last_name"`
	FullName                  string               `json:"full_name"`
	Email                     string               `json:"email"`
	Phone                     string               `json:"phone"`
	Address                   string               `json:"address"`
	DateOfBirth               *time.Time           `json:"date_of_birth,omitempty"`
	Gender                    string               `json:"gender"`
	Status                    string               `json:"status"`
	Position                  expand.Ref[Position] `json:"position,omitempty"`
	MaxHoursPerWeek           int                  `json:"max_hours_per_week"`
	MaxConsecutiveDays        int                  `json:"max_consecutive_days"`
	MinRestHoursBetweenShifts int                  `json:"min_rest_hours_between_shifts"`
	CreatedAt                 time.Time            `json:"created_at"`
	UpdatedAt                 time.Time            `json:"updated_at"`
}

// DisplayName prefers the stored full name and otherwise derives it
// from first + last. The derivation is idempotent: it never writes
// back, so repeated calls always agree.
func (e *Employee) DisplayName() string {
	if name := strings.TrimSpace(e.FullName); name != "" {
		return name
	}
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// AvatarURL derives a stable avatar from the display name.
func (e *Employee) AvatarURL() string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(e.DisplayName())
}

type RFIDCard struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	CardNumber string    `json:"card_number"`
	Active     bool      `json:"active"`
	IssuedAt   time.Time `json:"issued_at"`
}

// WorkConstraints are the scheduling limits carried by an employee.
type WorkConstraints struct {
	MaxHoursPerWeek           int
	MaxConsecutiveDays        int
	MinRestHoursBetweenShifts int
}

func (e *Employee) Constraints() WorkConstraints {
	return WorkConstraints{
		MaxHoursPerWeek:           e.MaxHoursPerWeek,
		MaxConsecutiveDays:        e.MaxConsecutiveDays,
		MinRestHoursBetweenShifts: e.MinRestHoursBetweenShifts,
	}
}
