package scheduler

import "time"

// Shift is one concrete work window; cross-midnight shifts carry an
// End on the following day.
type Shift struct {
	ID    string
	Start time.Time
	End   time.Time
}

func (s Shift) Hours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Slot is one (shift, position) staffing target.
type Slot struct {
	ShiftID    string
	PositionID string
	Required   int
}

// Employee carries the work-hour constraints the engine must honour.
type Employee struct {
	ID                 string
	MaxHoursPerWeek    int
	MaxConsecutiveDays int
	MinRestHours       int
}

// AvailabilityRecord is a self-registered willingness to work a shift,
// optionally scoped to positions (empty scope admits any position).
type AvailabilityRecord struct {
	ShiftID     string
	EmployeeID  string
	PositionIDs []string
}

// Assignment is one resolved (shift, position, employee) decision.
type Assignment struct {
	ShiftID    string
	PositionID string
	EmployeeID string
}

// Result is the engine outcome: the new assignments plus the slots it
// could not fill under the constraints.
type Result struct {
	Assignments []Assignment
	Unfilled    []Slot
}
