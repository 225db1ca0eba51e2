package scheduling

import (
	"time"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

const (
	ScheduleDraft     = "draft"
	SchedulePublished = "published"
)

const (
	AssignmentStatusAssigned = "assigned"

	SourceManual = "manual"
	SourceAuto   = "auto"
)

type ShiftType struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	CrossMidnight bool      `json:"cross_midnight"`
	CreatedAt     time.Time `json:"created_at"`
}

type WeeklySchedule struct {
	ID          string     `json:"id"`
	WeekStart   time.Time  `json:"week_start"`
	WeekEnd     time.Time  `json:"week_end"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Shift struct {
	ID            string                `json:"id"`
	ScheduleID    string                `json:"schedule_id,omitempty"`
	ShiftType     expand.Ref[ShiftType] `json:"shift_type,omitempty"`
	ShiftDate     time.Time             `json:"shift_date"`
	TotalRequired int                   `json:"total_required"`
	CreatedAt     time.Time             `json:"created_at"`
}

type PositionRequirement struct {
	ID            string                         `json:"id"`
	ShiftID       string                         `json:"shift_id"`
	Position      expand.Ref[employees.Position] `json:"position"`
	RequiredCount int                            `json:"required_count"`
}

type Availability struct {
	ID          string    `json:"id"`
	ShiftID     string    `json:"shift_id"`
	EmployeeID  string    `json:"employee_id"`
	Note        string    `json:"note"`
	PositionIDs []string  `json:"position_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// CoversPosition reports whether the registration admits the position.
// An empty scope means "any position".
func (a *Availability) CoversPosition(positionID string) bool {
	if len(a.PositionIDs) == 0 {
		return true
	}
	for _, id := range a.PositionIDs {
		if id == positionID {
			return true
		}
	}
	return false
}

type Assignment struct {
	ID         string                         `json:"id"`
	ShiftID    string                         `json:"shift_id"`
	Position   expand.Ref[employees.Position] `json:"position"`
	Employee   expand.Ref[employees.Employee] `json:"employee"`
	Status     string                         `json:"status"`
	Source     string                         `json:"source"`
	AssignedBy string                         `json:"assigned_by,omitempty"`
	AssignedAt time.Time                      `json:"assigned_at"`
}
