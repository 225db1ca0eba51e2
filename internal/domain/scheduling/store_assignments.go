package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

var (
	ErrNoAvailability     = errors.New("employee has no availability registration for this shift")
	ErrPositionNotCovered = errors.New("availability registration does not cover this position")
	ErrAlreadyAssigned    = errors.New("employee is already assigned within this shift")
	ErrNoRequirement      = errors.New("shift has no requirement for this position")
	ErrSlotFull           = errors.New("all required slots for this position are filled")
)

const assignmentColumns = `
  a.id, COALESCE(a.shift_id::text, ''), COALESCE(a.position_id::text, ''), COALESCE(a.employee_id::text, ''),
  a.status, a.source, COALESCE(a.assigned_by::text, ''), a.assigned_at,
  p.id IS NOT NULL, COALESCE(p.name, ''),
  e.id IS NOT NULL, COALESCE(e.employee_code, ''), COALESCE(e.first_name, ''),
  COALESCE(e.last_name, ''), COALESCE(e.full_name, '')`

func scanAssignment(scan func(...any) error) (Assignment, error) {
	var a Assignment
	var positionID, employeeID string
	var hasPosition, hasEmployee bool
	var pos employees.Position
	var emp employees.Employee
	err := scan(
		&a.ID, &a.ShiftID, &positionID, &employeeID,
		&a.Status, &a.Source, &a.AssignedBy, &a.AssignedAt,
		&hasPosition, &pos.Name,
		&hasEmployee, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.FullName,
	)
	if err != nil {
		return Assignment{}, err
	}
	if hasPosition {
		pos.ID = positionID
		a.Position = expand.Expanded(positionID, &pos)
	} else if positionID != "" {
		a.Position = expand.Reference[employees.Position](positionID)
	}
	if hasEmployee {
		emp.ID = employeeID
		a.Employee = expand.Expanded(employeeID, &emp)
	} else if employeeID != "" {
		a.Employee = expand.Reference[employees.Employee](employeeID)
	}
	return a, nil
}

type AssignmentListOptions struct {
	ShiftID    string
	ScheduleID string
	EmployeeID string
	Expand     bool
}

func (s *Store) ListAssignments(ctx context.Context, opts AssignmentListOptions) ([]Assignment, error) {
	where := []string{"TRUE"}
	args := []any{}
	if opts.ShiftID != "" {
		args = append(args, opts.ShiftID)
		where = append(where, fmt.Sprintf("a.shift_id = $%d::uuid", len(args)))
	}
	if opts.ScheduleID != "" {
		args = append(args, opts.ScheduleID)
		where = append(where, fmt.Sprintf("a.shift_id IN (SELECT id FROM shifts WHERE schedule_id = $%d::uuid)", len(args)))
	}
	if opts.EmployeeID != "" {
		args = append(args, opts.EmployeeID)
		where = append(where, fmt.Sprintf("a.employee_id = $%d::uuid", len(args)))
	}

	joins := "LEFT JOIN positions p ON FALSE LEFT JOIN employees e ON FALSE"
	if opts.Expand {
		joins = "LEFT JOIN positions p ON p.id = a.position_id LEFT JOIN employees e ON e.id = a.employee_id"
	}

	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s FROM schedule_assignments a %s WHERE %s
    ORDER BY a.assigned_at
  `, assignmentColumns, joins, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *Store) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM schedule_assignments a
    LEFT JOIN positions p ON p.id = a.position_id
    LEFT JOIN employees e ON e.id = a.employee_id
    WHERE a.id = $1
  `, assignmentColumns), id)
	a, err := scanAssignment(row.Scan)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAssignment enforces every staffing invariant inside one
// transaction. The requirement row is locked so two concurrent admins
// racing for the last open slot serialize: the first commit wins, the
// second observes a full slot.
func (s *Store) CreateAssignment(ctx context.Context, a Assignment) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var availabilityID string
	var positionIDs []string
	err = tx.QueryRow(ctx, `
    SELECT av.id,
           COALESCE(array_agg(ap.position_id::text) FILTER (WHERE ap.position_id IS NOT NULL), '{}')
    FROM employee_availability av
    LEFT JOIN employee_availability_positions ap ON ap.availability_id = av.id
    WHERE av.shift_id = $1 AND av.employee_id = $2
    GROUP BY av.id
  `, a.ShiftID, a.Employee.ID()).Scan(&availabilityID, &positionIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoAvailability
	}
	if err != nil {
		return "", err
	}

	availability := Availability{PositionIDs: positionIDs}
	if !availability.CoversPosition(a.Position.ID()) {
		return "", ErrPositionNotCovered
	}

	var alreadyAssigned int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM schedule_assignments
    WHERE shift_id = $1 AND employee_id = $2
  `, a.ShiftID, a.Employee.ID()).Scan(&alreadyAssigned); err != nil {
		return "", err
	}
	if alreadyAssigned > 0 {
		return "", ErrAlreadyAssigned
	}

	var requiredCount int
	err = tx.QueryRow(ctx, `
    SELECT required_count FROM shift_position_requirements
    WHERE shift_id = $1 AND position_id = $2
    FOR UPDATE
  `, a.ShiftID, a.Position.ID()).Scan(&requiredCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoRequirement
	}
	if err != nil {
		return "", err
	}

	var assignedCount int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM schedule_assignments
    WHERE shift_id = $1 AND position_id = $2
  `, a.ShiftID, a.Position.ID()).Scan(&assignedCount); err != nil {
		return "", err
	}
	if assignedCount >= requiredCount {
		return "", ErrSlotFull
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO schedule_assignments (shift_id, position_id, employee_id, status, source, assigned_by)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6,'')::uuid)
    RETURNING id
  `, a.ShiftID, a.Position.ID(), a.Employee.ID(), AssignmentStatusAssigned, a.Source, a.AssignedBy).Scan(&id); err != nil {
		return "", err
	}

	return id, tx.Commit(ctx)
}

// DeleteAssignment removes the assignment and reports the schedule it
// belonged to so the readiness cache can be invalidated.
func (s *Store) DeleteAssignment(ctx context.Context, id string) (string, error) {
	var scheduleID string
	err := s.DB.QueryRow(ctx, `
    DELETE FROM schedule_assignments a
    USING shifts sh
    WHERE a.id = $1 AND sh.id = a.shift_id
    RETURNING COALESCE(sh.schedule_id::text, '')
  `, id).Scan(&scheduleID)
	if err != nil {
		return "", err
	}
	return scheduleID, nil
}

// DeleteScheduleAssignments clears assignments for a schedule,
// optionally only the auto-generated ones.
func (s *Store) DeleteScheduleAssignments(ctx context.Context, scheduleID string, onlyAuto bool) (int64, error) {
	query := `
    DELETE FROM schedule_assignments
    WHERE shift_id IN (SELECT id FROM shifts WHERE schedule_id = $1)
  `
	if onlyAuto {
		query += " AND source = 'auto'"
	}
	tag, err := s.DB.Exec(ctx, query, scheduleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertAssignments bulk-inserts engine output, skipping conflicts.
func (s *Store) InsertAssignments(ctx context.Context, assignments []Assignment) (int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for _, a := range assignments {
		tag, err := tx.Exec(ctx, `
      INSERT INTO schedule_assignments (shift_id, position_id, employee_id, status, source, assigned_by)
      VALUES ($1, $2, $3, $4, $5, NULLIF($6,'')::uuid)
      ON CONFLICT (shift_id, employee_id) DO NOTHING
    `, a.ShiftID, a.Position.ID(), a.Employee.ID(), AssignmentStatusAssigned, a.Source, a.AssignedBy)
		if err != nil {
			return 0, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, tx.Commit(ctx)
}
