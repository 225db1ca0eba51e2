package scheduler

import "time"

// passesConstraints checks a tentative plan extension against the
// employee's work-hour limits. Zero-valued limits are treated as
// unlimited.
func passesConstraints(emp *Employee, state *employeeState, shift Shift) bool {
	if state.perShift[shift.ID] {
		return false
	}
	if emp.MaxHoursPerWeek > 0 && state.hours+shift.Hours() > float64(emp.MaxHoursPerWeek) {
		return false
	}
	if !restSatisfied(state, shift, emp.MinRestHours) {
		return false
	}
	if emp.MaxConsecutiveDays > 0 && consecutiveRunWith(state, shift) > emp.MaxConsecutiveDays {
		return false
	}
	return true
}

// restSatisfied rejects overlapping shifts and gaps shorter than the
// minimum rest window, in either direction.
func restSatisfied(state *employeeState, shift Shift, minRestHours int) bool {
	rest := time.Duration(minRestHours) * time.Hour
	for _, taken := range state.shifts {
		if shift.Start.Before(taken.End) && taken.Start.Before(shift.End) {
			return false
		}
		if !shift.Start.Before(taken.End) {
			if shift.Start.Sub(taken.End) < rest {
				return false
			}
		}
		if !taken.Start.Before(shift.End) {
			if taken.Start.Sub(shift.End) < rest {
				return false
			}
		}
	}
	return true
}

// consecutiveRunWith computes the run of back-to-back worked calendar
// days around the shift's day if it were added.
func consecutiveRunWith(state *employeeState, shift Shift) int {
	const layout = "2006-01-02"
	run := 1
	for d := shift.Start.AddDate(0, 0, -1); state.days[d.Format(layout)]; d = d.AddDate(0, 0, -1) {
		run++
	}
	for d := shift.Start.AddDate(0, 0, 1); state.days[d.Format(layout)]; d = d.AddDate(0, 0, 1) {
		run++
	}
	return run
}
