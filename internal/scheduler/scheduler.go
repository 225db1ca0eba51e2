// Package scheduler fills the open (shift, position) slots of a weekly
// schedule from employee availability registrations. The fill is a
// deterministic greedy pass: slots are visited in chronological order
// and each one takes the least-loaded available employee that passes
// every work-hour constraint, so reruns over the same data produce the
// same staffing.
package scheduler

import (
	"fmt"
	"sort"
)

type Scheduler struct {
	shifts    map[string]Shift
	slots     []Slot
	employees map[string]*Employee

	// availableMap: shiftID -> positionID admitted -> employee ids
	available map[string]map[string][]string
	records   []AvailabilityRecord

	state map[string]*employeeState
}

type employeeState struct {
	hours    float64
	shifts   []Shift
	perShift map[string]bool
	days     map[string]bool
}

func New(shifts []Shift, slots []Slot, employees []Employee, records []AvailabilityRecord, existing []Assignment) (*Scheduler, error) {
	s := &Scheduler{
		shifts:    make(map[string]Shift, len(shifts)),
		slots:     append([]Slot(nil), slots...),
		employees: make(map[string]*Employee, len(employees)),
		available: make(map[string]map[string][]string),
		records:   records,
		state:     make(map[string]*employeeState),
	}

	for _, shift := range shifts {
		s.shifts[shift.ID] = shift
	}
	for i := range employees {
		emp := employees[i]
		s.employees[emp.ID] = &emp
		s.state[emp.ID] = &employeeState{
			perShift: make(map[string]bool),
			days:     make(map[string]bool),
		}
	}

	for _, record := range records {
		if _, ok := s.shifts[record.ShiftID]; !ok {
			continue
		}
		if _, ok := s.employees[record.EmployeeID]; !ok {
			return nil, fmt.Errorf("availability references unknown employee %s", record.EmployeeID)
		}
		byPosition, ok := s.available[record.ShiftID]
		if !ok {
			byPosition = make(map[string][]string)
			s.available[record.ShiftID] = byPosition
		}
		keys := record.PositionIDs
		if len(keys) == 0 {
			keys = []string{anyPosition}
		}
		for _, positionID := range keys {
			byPosition[positionID] = append(byPosition[positionID], record.EmployeeID)
		}
	}

	// existing assignments count toward every constraint
	for _, a := range existing {
		shift, ok := s.shifts[a.ShiftID]
		if !ok {
			continue
		}
		if state, ok := s.state[a.EmployeeID]; ok {
			state.take(shift)
		}
	}

	return s, nil
}

const anyPosition = "*"

func (st *employeeState) take(shift Shift) {
	st.hours += shift.Hours()
	st.shifts = append(st.shifts, shift)
	st.perShift[shift.ID] = true
	st.days[shift.Start.Format("2006-01-02")] = true
}

// Schedule runs the greedy fill and post-validates the plan against
// the availability registrations before returning it.
func (s *Scheduler) Schedule() (*Result, error) {
	slots := append([]Slot(nil), s.slots...)
	sort.Slice(slots, func(i, j int) bool {
		si, sj := s.shifts[slots[i].ShiftID], s.shifts[slots[j].ShiftID]
		if !si.Start.Equal(sj.Start) {
			return si.Start.Before(sj.Start)
		}
		if slots[i].ShiftID != slots[j].ShiftID {
			return slots[i].ShiftID < slots[j].ShiftID
		}
		return slots[i].PositionID < slots[j].PositionID
	})

	result := &Result{
		Assignments: make([]Assignment, 0),
		Unfilled:    make([]Slot, 0),
	}

	for _, slot := range slots {
		shift, ok := s.shifts[slot.ShiftID]
		if !ok {
			continue
		}
		open := slot.Required
		for open > 0 {
			candidate := s.pickCandidate(shift, slot.PositionID)
			if candidate == "" {
				break
			}
			s.state[candidate].take(shift)
			result.Assignments = append(result.Assignments, Assignment{
				ShiftID:    slot.ShiftID,
				PositionID: slot.PositionID,
				EmployeeID: candidate,
			})
			open--
		}
		if open > 0 {
			result.Unfilled = append(result.Unfilled, Slot{
				ShiftID:    slot.ShiftID,
				PositionID: slot.PositionID,
				Required:   open,
			})
		}
	}

	if err := s.validate(result.Assignments); err != nil {
		return nil, err
	}
	return result, nil
}

// pickCandidate returns the least-loaded constraint-passing employee
// available for the slot, ties broken by employee id.
func (s *Scheduler) pickCandidate(shift Shift, positionID string) string {
	byPosition := s.available[shift.ID]
	if byPosition == nil {
		return ""
	}

	seen := make(map[string]bool)
	candidates := make([]string, 0)
	for _, id := range byPosition[positionID] {
		if !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}
	for _, id := range byPosition[anyPosition] {
		if !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}

	best := ""
	var bestHours float64
	for _, id := range candidates {
		emp := s.employees[id]
		state := s.state[id]
		if !passesConstraints(emp, state, shift) {
			continue
		}
		if best == "" || state.hours < bestHours || (state.hours == bestHours && id < best) {
			best = id
			bestHours = state.hours
		}
	}
	return best
}

// validate replays the plan against the raw availability records, the
// final safety net before anything is persisted.
func (s *Scheduler) validate(assignments []Assignment) error {
	registered := make(map[string]map[string]AvailabilityRecord)
	for _, record := range s.records {
		byEmployee, ok := registered[record.ShiftID]
		if !ok {
			byEmployee = make(map[string]AvailabilityRecord)
			registered[record.ShiftID] = byEmployee
		}
		byEmployee[record.EmployeeID] = record
	}

	perShift := make(map[string]map[string]bool)
	for _, a := range assignments {
		record, ok := registered[a.ShiftID][a.EmployeeID]
		if !ok {
			return fmt.Errorf("employee %s assigned to shift %s without availability", a.EmployeeID, a.ShiftID)
		}
		if len(record.PositionIDs) > 0 {
			covered := false
			for _, id := range record.PositionIDs {
				if id == a.PositionID {
					covered = true
					break
				}
			}
			if !covered {
				return fmt.Errorf("employee %s assigned to uncovered position %s", a.EmployeeID, a.PositionID)
			}
		}

		inShift, ok := perShift[a.ShiftID]
		if !ok {
			inShift = make(map[string]bool)
			perShift[a.ShiftID] = inShift
		}
		if inShift[a.EmployeeID] {
			return fmt.Errorf("employee %s assigned twice within shift %s", a.EmployeeID, a.ShiftID)
		}
		inShift[a.EmployeeID] = true
	}
	return nil
}
