package scheduling

import "math"

const (
	// publish gate and progress banding thresholds
	PublishThreshold = 80.0
	WarnThreshold    = 50.0

	ReadinessSuccess   = "success"
	ReadinessActive    = "active"
	ReadinessException = "exception"
)

// Shortfall names one understaffed (shift, position) slot.
type Shortfall struct {
	ShiftID    string `json:"shift_id"`
	PositionID string `json:"position_id"`
	Required   int    `json:"required"`
	Assigned   int    `json:"assigned"`
}

type Readiness struct {
	ScheduleID    string      `json:"schedule_id"`
	TotalRequired int         `json:"total_required"`
	TotalAssigned int         `json:"total_assigned"`
	Coverage      float64     `json:"coverage"`
	Status        string      `json:"status"`
	CanPublish    bool        `json:"can_publish"`
	Understaffed  []Shortfall `json:"understaffed"`
}

// ComputeReadiness derives the coverage ratio and publish gate from the
// schedule's requirements and assignments. Assignments beyond a slot's
// required count do not inflate coverage.
func ComputeReadiness(scheduleID string, requirements []PositionRequirement, assignments []Assignment) Readiness {
	type slot struct {
		shiftID    string
		positionID string
	}

	assigned := make(map[slot]int)
	for _, a := range assignments {
		assigned[slot{a.ShiftID, a.Position.ID()}]++
	}

	readiness := Readiness{
		ScheduleID:   scheduleID,
		Understaffed: make([]Shortfall, 0),
	}
	for _, req := range requirements {
		count := assigned[slot{req.ShiftID, req.Position.ID()}]
		readiness.TotalRequired += req.RequiredCount
		if count > req.RequiredCount {
			count = req.RequiredCount
		}
		readiness.TotalAssigned += count
		if count < req.RequiredCount {
			readiness.Understaffed = append(readiness.Understaffed, Shortfall{
				ShiftID:    req.ShiftID,
				PositionID: req.Position.ID(),
				Required:   req.RequiredCount,
				Assigned:   count,
			})
		}
	}

	if readiness.TotalRequired > 0 {
		readiness.Coverage = math.Round(float64(readiness.TotalAssigned)/float64(readiness.TotalRequired)*1000) / 10
	} else {
		readiness.Coverage = 100
	}

	switch {
	case readiness.Coverage >= PublishThreshold:
		readiness.Status = ReadinessSuccess
		readiness.CanPublish = true
	case readiness.Coverage >= WarnThreshold:
		readiness.Status = ReadinessActive
	default:
		readiness.Status = ReadinessException
	}
	return readiness
}
