package scheduler

import (
	"testing"
	"time"
)

func day(d int, hour int) time.Time {
	return time.Date(2026, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestScheduleFillsFromAvailability(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Start: day(2, 9), End: day(2, 13)},
		{ID: "s2", Start: day(2, 14), End: day(2, 18)},
	}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "p1", Required: 1},
		{ShiftID: "s2", PositionID: "p1", Required: 1},
	}
	employees := []Employee{{ID: "e1"}, {ID: "e2"}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e1"},
		{ShiftID: "s2", EmployeeID: "e1"},
		{ShiftID: "s2", EmployeeID: "e2"},
	}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(result.Assignments))
	}
	if len(result.Unfilled) != 0 {
		t.Fatalf("expected no unfilled slots, got %v", result.Unfilled)
	}
	// e1 is the only option for s1; once loaded, e2 is the lighter
	// candidate for s2.
	if got := result.Assignments[0]; got.ShiftID != "s1" || got.EmployeeID != "e1" {
		t.Fatalf("unexpected first assignment %+v", got)
	}
	if got := result.Assignments[1]; got.ShiftID != "s2" || got.EmployeeID != "e2" {
		t.Fatalf("unexpected second assignment %+v", got)
	}
}

func TestScheduleIsDeterministic(t *testing.T) {
	shifts := []Shift{{ID: "s1", Start: day(3, 9), End: day(3, 17)}}
	slots := []Slot{{ShiftID: "s1", PositionID: "p1", Required: 1}}
	employees := []Employee{{ID: "e2"}, {ID: "e1"}, {ID: "e3"}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e3"},
		{ShiftID: "s1", EmployeeID: "e1"},
		{ShiftID: "s1", EmployeeID: "e2"},
	}

	for i := 0; i < 5; i++ {
		s, err := New(shifts, slots, employees, records, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		result, err := s.Schedule()
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		if len(result.Assignments) != 1 || result.Assignments[0].EmployeeID != "e1" {
			t.Fatalf("run %d: expected e1 on equal load, got %+v", i, result.Assignments)
		}
	}
}

func TestSchedulePositionScope(t *testing.T) {
	shifts := []Shift{{ID: "s1", Start: day(4, 9), End: day(4, 13)}}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "cashier", Required: 1},
		{ShiftID: "s1", PositionID: "cook", Required: 1},
	}
	employees := []Employee{{ID: "e1"}, {ID: "e2"}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e1", PositionIDs: []string{"cook"}},
		{ShiftID: "s1", EmployeeID: "e2"}, // unscoped, any position
	}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	byPosition := make(map[string]string)
	for _, a := range result.Assignments {
		byPosition[a.PositionID] = a.EmployeeID
	}
	if byPosition["cook"] != "e1" {
		t.Fatalf("expected scoped e1 on cook, got %q", byPosition["cook"])
	}
	if byPosition["cashier"] != "e2" {
		t.Fatalf("expected unscoped e2 on cashier, got %q", byPosition["cashier"])
	}
}

func TestScheduleNoDoubleBookingWithinShift(t *testing.T) {
	shifts := []Shift{{ID: "s1", Start: day(5, 9), End: day(5, 13)}}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "p1", Required: 1},
		{ShiftID: "s1", PositionID: "p2", Required: 1},
	}
	employees := []Employee{{ID: "e1"}}
	records := []AvailabilityRecord{{ShiftID: "s1", EmployeeID: "e1"}}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("expected a single assignment, got %+v", result.Assignments)
	}
	if len(result.Unfilled) != 1 || result.Unfilled[0].Required != 1 {
		t.Fatalf("expected one unfilled slot, got %+v", result.Unfilled)
	}
}

func TestScheduleMaxHoursPerWeek(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Start: day(2, 9), End: day(2, 17)},
		{ID: "s2", Start: day(3, 9), End: day(3, 17)},
	}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "p1", Required: 1},
		{ShiftID: "s2", PositionID: "p1", Required: 1},
	}
	employees := []Employee{{ID: "e1", MaxHoursPerWeek: 10}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e1"},
		{ShiftID: "s2", EmployeeID: "e1"},
	}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("expected 8h cap to admit one shift only, got %+v", result.Assignments)
	}
	if len(result.Unfilled) != 1 {
		t.Fatalf("expected the second slot unfilled, got %+v", result.Unfilled)
	}
}

func TestScheduleMinRestBetweenShifts(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Start: day(2, 9), End: day(2, 17)},
		{ID: "s2", Start: day(2, 20), End: day(3, 2)},
	}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "p1", Required: 1},
		{ShiftID: "s2", PositionID: "p1", Required: 1},
	}
	employees := []Employee{{ID: "e1", MinRestHours: 8}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e1"},
		{ShiftID: "s2", EmployeeID: "e1"},
	}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 1 {
		t.Fatalf("expected the 3h gap to be rejected, got %+v", result.Assignments)
	}
}

func TestScheduleMaxConsecutiveDays(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Start: day(2, 9), End: day(2, 13)},
		{ID: "s2", Start: day(3, 9), End: day(3, 13)},
		{ID: "s3", Start: day(4, 9), End: day(4, 13)},
	}
	slots := []Slot{
		{ShiftID: "s1", PositionID: "p1", Required: 1},
		{ShiftID: "s2", PositionID: "p1", Required: 1},
		{ShiftID: "s3", PositionID: "p1", Required: 1},
	}
	employees := []Employee{{ID: "e1", MaxConsecutiveDays: 2}}
	records := []AvailabilityRecord{
		{ShiftID: "s1", EmployeeID: "e1"},
		{ShiftID: "s2", EmployeeID: "e1"},
		{ShiftID: "s3", EmployeeID: "e1"},
	}

	s, err := New(shifts, slots, employees, records, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 2 {
		t.Fatalf("expected the third day rejected, got %+v", result.Assignments)
	}
	for _, a := range result.Assignments {
		if a.ShiftID == "s3" {
			t.Fatalf("third consecutive day must not be assigned")
		}
	}
}

func TestScheduleExistingAssignmentsCount(t *testing.T) {
	shifts := []Shift{
		{ID: "s1", Start: day(2, 9), End: day(2, 17)},
		{ID: "s2", Start: day(3, 9), End: day(3, 17)},
	}
	slots := []Slot{{ShiftID: "s2", PositionID: "p1", Required: 1}}
	employees := []Employee{{ID: "e1", MaxHoursPerWeek: 10}}
	records := []AvailabilityRecord{{ShiftID: "s2", EmployeeID: "e1"}}
	existing := []Assignment{{ShiftID: "s1", PositionID: "p1", EmployeeID: "e1"}}

	s, err := New(shifts, slots, employees, records, existing)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := s.Schedule()
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(result.Assignments) != 0 {
		t.Fatalf("existing 8h must block the second 8h shift, got %+v", result.Assignments)
	}
	if len(result.Unfilled) != 1 {
		t.Fatalf("expected the slot reported unfilled, got %+v", result.Unfilled)
	}
}

func TestNewRejectsUnknownEmployeeAvailability(t *testing.T) {
	shifts := []Shift{{ID: "s1", Start: day(2, 9), End: day(2, 13)}}
	records := []AvailabilityRecord{{ShiftID: "s1", EmployeeID: "ghost"}}

	if _, err := New(shifts, nil, nil, records, nil); err == nil {
		t.Fatalf("expected error for availability of unknown employee")
	}
}
