package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
	"hrms/internal/platform/cache"
	"hrms/internal/scheduler"
)

var (
	ErrNotPublishable   = errors.New("schedule coverage is below the publish threshold")
	ErrAlreadyPublished = errors.New("schedule is already published")
)

// Service layers caching and the auto-fill engine over the store.
type Service struct {
	store     *Store
	employees *employees.Store
	cache     *cache.Cache
	logger    *slog.Logger
}

func NewService(store *Store, empStore *employees.Store, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{store: store, employees: empStore, cache: c, logger: logger}
}

// Readiness returns the schedule's staffing coverage, serving from the
// cache when a fresh entry exists.
func (s *Service) Readiness(ctx context.Context, scheduleID string) (*Readiness, error) {
	if payload, ok := s.cache.GetReadiness(ctx, scheduleID); ok {
		var cached Readiness
		if err := json.Unmarshal(payload, &cached); err == nil {
			return &cached, nil
		}
		s.cache.InvalidateReadiness(ctx, scheduleID)
	}

	readiness, err := s.computeReadiness(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(readiness); err == nil {
		s.cache.SetReadiness(ctx, scheduleID, payload)
	}
	return readiness, nil
}

func (s *Service) computeReadiness(ctx context.Context, scheduleID string) (*Readiness, error) {
	if _, err := s.store.GetSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}
	requirements, err := s.store.ListRequirements(ctx, "", scheduleID, false)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListAssignments(ctx, AssignmentListOptions{ScheduleID: scheduleID})
	if err != nil {
		return nil, err
	}
	readiness := ComputeReadiness(scheduleID, requirements, assignments)
	return &readiness, nil
}

// Publish marks the schedule published once coverage clears the
// threshold. The readiness is recomputed from the store, never trusted
// from the cache.
func (s *Service) Publish(ctx context.Context, scheduleID string) (*WeeklySchedule, error) {
	schedule, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == SchedulePublished {
		return nil, ErrAlreadyPublished
	}

	readiness, err := s.computeReadiness(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !readiness.CanPublish {
		return nil, fmt.Errorf("%w: coverage %.1f%%", ErrNotPublishable, readiness.Coverage)
	}

	if err := s.store.MarkPublished(ctx, scheduleID); err != nil {
		return nil, err
	}
	s.cache.InvalidateReadiness(ctx, scheduleID)
	s.logger.Info("schedule published", "schedule_id", scheduleID, "coverage", readiness.Coverage)
	return s.store.GetSchedule(ctx, scheduleID)
}

// Assign persists a manual assignment and drops the cached readiness.
func (s *Service) Assign(ctx context.Context, a Assignment) (string, error) {
	id, err := s.store.CreateAssignment(ctx, a)
	if err != nil {
		return "", err
	}
	if scheduleID, err := s.store.ScheduleIDForShift(ctx, a.ShiftID); err == nil {
		s.cache.InvalidateReadiness(ctx, scheduleID)
	}
	return id, nil
}

// Unassign removes an assignment and drops the cached readiness.
func (s *Service) Unassign(ctx context.Context, id string) error {
	scheduleID, err := s.store.DeleteAssignment(ctx, id)
	if err != nil {
		return err
	}
	s.cache.InvalidateReadiness(ctx, scheduleID)
	return nil
}

// AutoScheduleResult summarizes one engine run.
type AutoScheduleResult struct {
	ScheduleID string      `json:"schedule_id"`
	Cleared    int64       `json:"cleared"`
	Created    int         `json:"created"`
	Unfilled   []Shortfall `json:"unfilled"`
	Readiness  *Readiness  `json:"readiness"`
}

// AutoSchedule fills the schedule's open slots from the availability
// registrations. With overwrite set, previous auto-generated
// assignments are cleared first; manual assignments always survive.
func (s *Service) AutoSchedule(ctx context.Context, scheduleID string, overwrite bool) (*AutoScheduleResult, error) {
	schedule, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.Status == SchedulePublished {
		return nil, ErrAlreadyPublished
	}

	result := &AutoScheduleResult{ScheduleID: scheduleID}
	if overwrite {
		cleared, err := s.store.DeleteScheduleAssignments(ctx, scheduleID, true)
		if err != nil {
			return nil, err
		}
		result.Cleared = cleared
	}

	shifts, _, err := s.store.ListShifts(ctx, ShiftListOptions{ScheduleID: scheduleID, ExpandType: true})
	if err != nil {
		return nil, err
	}
	requirements, err := s.store.ListRequirements(ctx, "", scheduleID, false)
	if err != nil {
		return nil, err
	}
	availability, err := s.store.ListAvailability(ctx, "", "", scheduleID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ListAssignments(ctx, AssignmentListOptions{ScheduleID: scheduleID})
	if err != nil {
		return nil, err
	}
	staff, _, err := s.employees.ListEmployees(ctx, employees.ListOptions{
		Filters: map[string]string{"status": employees.StatusActive},
	})
	if err != nil {
		return nil, err
	}

	engineShifts := make([]scheduler.Shift, 0, len(shifts))
	for _, shift := range shifts {
		window, err := shiftWindow(shift)
		if err != nil {
			return nil, err
		}
		engineShifts = append(engineShifts, window)
	}

	slots := make([]scheduler.Slot, 0, len(requirements))
	for _, req := range requirements {
		slots = append(slots, scheduler.Slot{
			ShiftID:    req.ShiftID,
			PositionID: req.Position.ID(),
			Required:   req.RequiredCount,
		})
	}

	engineEmployees := make([]scheduler.Employee, 0, len(staff))
	for _, emp := range staff {
		engineEmployees = append(engineEmployees, scheduler.Employee{
			ID:                 emp.ID,
			MaxHoursPerWeek:    emp.MaxHoursPerWeek,
			MaxConsecutiveDays: emp.MaxConsecutiveDays,
			MinRestHours:       emp.MinRestHoursBetweenShifts,
		})
	}

	// registrations by terminated staff are ignored, not an error
	known := make(map[string]bool, len(staff))
	for _, emp := range staff {
		known[emp.ID] = true
	}
	records := make([]scheduler.AvailabilityRecord, 0, len(availability))
	for _, a := range availability {
		if !known[a.EmployeeID] {
			continue
		}
		records = append(records, scheduler.AvailabilityRecord{
			ShiftID:     a.ShiftID,
			EmployeeID:  a.EmployeeID,
			PositionIDs: a.PositionIDs,
		})
	}

	taken := make([]scheduler.Assignment, 0, len(existing))
	for _, a := range existing {
		taken = append(taken, scheduler.Assignment{
			ShiftID:    a.ShiftID,
			PositionID: a.Position.ID(),
			EmployeeID: a.Employee.ID(),
		})
	}

	engine, err := scheduler.New(engineShifts, slots, engineEmployees, records, taken)
	if err != nil {
		return nil, err
	}
	plan, err := engine.Schedule()
	if err != nil {
		return nil, err
	}

	inserts := make([]Assignment, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		inserts = append(inserts, Assignment{
			ShiftID:  a.ShiftID,
			Position: expand.Reference[employees.Position](a.PositionID),
			Employee: expand.Reference[employees.Employee](a.EmployeeID),
			Status:   AssignmentStatusAssigned,
			Source:   SourceAuto,
		})
	}
	created, err := s.store.InsertAssignments(ctx, inserts)
	if err != nil {
		return nil, err
	}
	result.Created = created

	result.Unfilled = make([]Shortfall, 0, len(plan.Unfilled))
	for _, slot := range plan.Unfilled {
		result.Unfilled = append(result.Unfilled, Shortfall{
			ShiftID:    slot.ShiftID,
			PositionID: slot.PositionID,
			Required:   slot.Required,
		})
	}

	s.cache.InvalidateReadiness(ctx, scheduleID)
	readiness, err := s.computeReadiness(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	result.Readiness = readiness
	s.logger.Info("auto-schedule completed",
		"schedule_id", scheduleID,
		"created", result.Created,
		"cleared", result.Cleared,
		"unfilled", len(result.Unfilled))
	return result, nil
}

// shiftWindow resolves the shift's concrete time window from its date
// and shift type. Cross-midnight types end on the following day.
func shiftWindow(shift Shift) (scheduler.Shift, error) {
	shiftType, ok := shift.ShiftType.Record()
	if !ok {
		return scheduler.Shift{}, fmt.Errorf("shift %s is missing its shift type", shift.ID)
	}
	start, err := atClock(shift.ShiftDate, shiftType.StartTime)
	if err != nil {
		return scheduler.Shift{}, fmt.Errorf("shift %s: %w", shift.ID, err)
	}
	end, err := atClock(shift.ShiftDate, shiftType.EndTime)
	if err != nil {
		return scheduler.Shift{}, fmt.Errorf("shift %s: %w", shift.ID, err)
	}
	if shiftType.CrossMidnight || !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return scheduler.Shift{ID: shift.ID, Start: start, End: end}, nil
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock value %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
