package attendance

import (
	"time"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

const (
	AdjustmentPending  = "pending"
	AdjustmentApproved = "approved"
	AdjustmentRejected = "rejected"
)

type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is one employee's attendance record for a work date. Clock
// values stay nil until the matching punch arrives.
type Log struct {
	ID        string                         `json:"id"`
	Employee  expand.Ref[employees.Employee] `json:"employee"`
	DeviceID  string                         `json:"device_id,omitempty"`
	WorkDate  time.Time                      `json:"work_date"`
	ClockIn   *time.Time                     `json:"clock_in"`
	ClockOut  *time.Time                     `json:"clock_out"`
	CreatedAt time.Time                      `json:"created_at"`
}

// WorkedHours returns the clocked span, zero when either punch is
// missing or the pair is inverted.
func (l *Log) WorkedHours() float64 {
	if l.ClockIn == nil || l.ClockOut == nil {
		return 0
	}
	span := l.ClockOut.Sub(*l.ClockIn)
	if span < 0 {
		return 0
	}
	return span.Hours()
}

// Adjustment is a correction request against a log: the old clock
// values are snapshotted at submission, the proposed ones are applied
// on approval.
type Adjustment struct {
	ID               string                         `json:"id"`
	Employee         expand.Ref[employees.Employee] `json:"employee"`
	LogID            string                         `json:"log_id,omitempty"`
	WorkDate         time.Time                      `json:"work_date"`
	OldClockIn       *time.Time                     `json:"old_clock_in"`
	OldClockOut      *time.Time                     `json:"old_clock_out"`
	ProposedClockIn  *time.Time                     `json:"proposed_clock_in"`
	ProposedClockOut *time.Time                     `json:"proposed_clock_out"`
	Reason           string                         `json:"reason"`
	Status           string                         `json:"status"`
	DecidedBy        string                         `json:"decided_by,omitempty"`
	DecidedAt        *time.Time                     `json:"decided_at,omitempty"`
	CreatedAt        time.Time                      `json:"created_at"`
}

// Decidable reports whether the adjustment still awaits a decision.
func (a *Adjustment) Decidable() bool {
	return a.Status == AdjustmentPending
}
