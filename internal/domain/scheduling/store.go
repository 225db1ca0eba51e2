package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListShiftTypes(ctx context.Context) ([]ShiftType, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), cross_midnight, created_at
    FROM shift_types ORDER BY start_time
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]ShiftType, 0)
	for rows.Next() {
		var st ShiftType
		if err := rows.Scan(&st.ID, &st.Name, &st.StartTime, &st.EndTime, &st.CrossMidnight, &st.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, st)
	}
	return types, rows.Err()
}

func (s *Store) GetShiftType(ctx context.Context, id string) (*ShiftType, error) {
	var st ShiftType
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), cross_midnight, created_at
    FROM shift_types WHERE id = $1
  `, id).Scan(&st.ID, &st.Name, &st.StartTime, &st.EndTime, &st.CrossMidnight, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) CreateShiftType(ctx context.Context, st ShiftType) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO shift_types (name, start_time, end_time, cross_midnight)
    VALUES ($1, $2::time, $3::time, $4)
    RETURNING id
  `, st.Name, st.StartTime, st.EndTime, st.CrossMidnight).Scan(&id)
	return id, err
}

func (s *Store) UpdateShiftType(ctx context.Context, id string, st ShiftType) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE shift_types SET name = $2, start_time = $3::time, end_time = $4::time, cross_midnight = $5
    WHERE id = $1
  `, id, st.Name, st.StartTime, st.EndTime, st.CrossMidnight)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteShiftType(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM shift_types WHERE id = $1", id)
	return err
}

func (s *Store) ListSchedules(ctx context.Context, status string, limit, offset int) ([]WeeklySchedule, int, error) {
	where := "TRUE"
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = "status = $1"
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM weekly_schedules WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT id, week_start, week_end, status, published_at, created_at
    FROM weekly_schedules WHERE %s
    ORDER BY week_start DESC LIMIT $%d OFFSET $%d
  `, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	schedules := make([]WeeklySchedule, 0)
	for rows.Next() {
		var ws WeeklySchedule
		if err := rows.Scan(&ws.ID, &ws.WeekStart, &ws.WeekEnd, &ws.Status, &ws.PublishedAt, &ws.CreatedAt); err != nil {
			return nil, 0, err
		}
		schedules = append(schedules, ws)
	}
	return schedules, total, rows.Err()
}

func (s *Store) GetSchedule(ctx context.Context, id string) (*WeeklySchedule, error) {
	var ws WeeklySchedule
	err := s.DB.QueryRow(ctx, `
    SELECT id, week_start, week_end, status, published_at, created_at
    FROM weekly_schedules WHERE id = $1
  `, id).Scan(&ws.ID, &ws.WeekStart, &ws.WeekEnd, &ws.Status, &ws.PublishedAt, &ws.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *Store) CreateSchedule(ctx context.Context, weekStart, weekEnd time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO weekly_schedules (week_start, week_end) VALUES ($1, $2) RETURNING id
  `, weekStart, weekEnd).Scan(&id)
	return id, err
}

// ShiftSeed is one shift of the create-with-shifts payload.
type ShiftSeed struct {
	ShiftTypeID   string
	ShiftDate     time.Time
	TotalRequired int
}

// CreateScheduleWithShifts creates the week and its shifts atomically.
func (s *Store) CreateScheduleWithShifts(ctx context.Context, weekStart, weekEnd time.Time, seeds []ShiftSeed) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO weekly_schedules (week_start, week_end) VALUES ($1, $2) RETURNING id
  `, weekStart, weekEnd).Scan(&id); err != nil {
		return "", err
	}

	for _, seed := range seeds {
		if _, err := tx.Exec(ctx, `
      INSERT INTO shifts (schedule_id, shift_type_id, shift_date, total_required)
      VALUES ($1, NULLIF($2,'')::uuid, $3, $4)
    `, id, seed.ShiftTypeID, seed.ShiftDate, seed.TotalRequired); err != nil {
			return "", err
		}
	}

	return id, tx.Commit(ctx)
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM weekly_schedules WHERE id = $1", id)
	return err
}

func (s *Store) MarkPublished(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE weekly_schedules SET status = $2, published_at = now() WHERE id = $1
  `, id, SchedulePublished)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const shiftColumns = `
  sh.id, COALESCE(sh.schedule_id::text, ''), COALESCE(sh.shift_type_id::text, ''),
  sh.shift_date, sh.total_required, sh.created_at,
  st.id IS NOT NULL, COALESCE(st.name, ''),
  COALESCE(to_char(st.start_time, 'HH24:MI'), ''), COALESCE(to_char(st.end_time, 'HH24:MI'), ''),
  COALESCE(st.cross_midnight, FALSE)`

func scanShift(scan func(...any) error) (Shift, error) {
	var shift Shift
	var typeID string
	var hasType bool
	var st ShiftType
	err := scan(
		&shift.ID, &shift.ScheduleID, &typeID,
		&shift.ShiftDate, &shift.TotalRequired, &shift.CreatedAt,
		&hasType, &st.Name, &st.StartTime, &st.EndTime, &st.CrossMidnight,
	)
	if err != nil {
		return Shift{}, err
	}
	if hasType {
		st.ID = typeID
		shift.ShiftType = expand.Expanded(typeID, &st)
	} else if typeID != "" {
		shift.ShiftType = expand.Reference[ShiftType](typeID)
	}
	return shift, nil
}

type ShiftListOptions struct {
	ScheduleID string
	Date       string
	ExpandType bool
	Limit      int
	Offset     int
}

func (s *Store) ListShifts(ctx context.Context, opts ShiftListOptions) ([]Shift, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if opts.ScheduleID != "" {
		args = append(args, opts.ScheduleID)
		where = append(where, fmt.Sprintf("sh.schedule_id = $%d::uuid", len(args)))
	}
	if opts.Date != "" {
		args = append(args, opts.Date)
		where = append(where, fmt.Sprintf("sh.shift_date = $%d::date", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM shifts sh WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	join := "LEFT JOIN shift_types st ON FALSE"
	if opts.ExpandType {
		join = "LEFT JOIN shift_types st ON st.id = sh.shift_type_id"
	}

	limit := opts.Limit
	if limit == 0 {
		limit = total + 1
	}
	args = append(args, limit, opts.Offset)
	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s FROM shifts sh %s WHERE %s
    ORDER BY sh.shift_date, sh.created_at LIMIT $%d OFFSET $%d
  `, shiftColumns, join, whereClause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	shifts := make([]Shift, 0)
	for rows.Next() {
		shift, err := scanShift(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, total, rows.Err()
}

func (s *Store) GetShift(ctx context.Context, id string) (*Shift, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM shifts sh
    LEFT JOIN shift_types st ON st.id = sh.shift_type_id
    WHERE sh.id = $1
  `, shiftColumns), id)
	shift, err := scanShift(row.Scan)
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (s *Store) CreateShift(ctx context.Context, shift Shift) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO shifts (schedule_id, shift_type_id, shift_date, total_required)
    VALUES (NULLIF($1,'')::uuid, NULLIF($2,'')::uuid, $3, $4)
    RETURNING id
  `, shift.ScheduleID, shift.ShiftType.ID(), shift.ShiftDate, shift.TotalRequired).Scan(&id)
	return id, err
}

func (s *Store) UpdateShift(ctx context.Context, id string, shift Shift) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE shifts SET schedule_id = NULLIF($2,'')::uuid, shift_type_id = NULLIF($3,'')::uuid,
      shift_date = $4, total_required = $5
    WHERE id = $1
  `, id, shift.ScheduleID, shift.ShiftType.ID(), shift.ShiftDate, shift.TotalRequired)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteShift(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM shifts WHERE id = $1", id)
	return err
}

func (s *Store) ScheduleIDForShift(ctx context.Context, shiftID string) (string, error) {
	var scheduleID string
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(schedule_id::text, '') FROM shifts WHERE id = $1
  `, shiftID).Scan(&scheduleID)
	return scheduleID, err
}

const requirementColumns = `
  r.id, COALESCE(r.shift_id::text, ''), COALESCE(r.position_id::text, ''), r.required_count,
  p.id IS NOT NULL, COALESCE(p.name, ''), COALESCE(p.description, '')`

func scanRequirement(scan func(...any) error) (PositionRequirement, error) {
	var req PositionRequirement
	var positionID string
	var hasPosition bool
	var pos employees.Position
	err := scan(&req.ID, &req.ShiftID, &positionID, &req.RequiredCount, &hasPosition, &pos.Name, &pos.Description)
	if err != nil {
		return PositionRequirement{}, err
	}
	if hasPosition {
		pos.ID = positionID
		req.Position = expand.Expanded(positionID, &pos)
	} else if positionID != "" {
		req.Position = expand.Reference[employees.Position](positionID)
	}
	return req, nil
}

func (s *Store) ListRequirements(ctx context.Context, shiftID, scheduleID string, expandPosition bool) ([]PositionRequirement, error) {
	where := []string{"TRUE"}
	args := []any{}
	if shiftID != "" {
		args = append(args, shiftID)
		where = append(where, fmt.Sprintf("r.shift_id = $%d::uuid", len(args)))
	}
	if scheduleID != "" {
		args = append(args, scheduleID)
		where = append(where, fmt.Sprintf("r.shift_id IN (SELECT id FROM shifts WHERE schedule_id = $%d::uuid)", len(args)))
	}

	join := "LEFT JOIN positions p ON FALSE"
	if expandPosition {
		join = "LEFT JOIN positions p ON p.id = r.position_id"
	}

	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT %s FROM shift_position_requirements r %s WHERE %s
    ORDER BY r.shift_id, r.position_id
  `, requirementColumns, join, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requirements := make([]PositionRequirement, 0)
	for rows.Next() {
		req, err := scanRequirement(rows.Scan)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}
	return requirements, rows.Err()
}

func (s *Store) GetRequirement(ctx context.Context, id string) (*PositionRequirement, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM shift_position_requirements r
    LEFT JOIN positions p ON p.id = r.position_id
    WHERE r.id = $1
  `, requirementColumns), id)
	req, err := scanRequirement(row.Scan)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) CreateRequirement(ctx context.Context, req PositionRequirement) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO shift_position_requirements (shift_id, position_id, required_count)
    VALUES ($1, $2, $3)
    RETURNING id
  `, req.ShiftID, req.Position.ID(), req.RequiredCount).Scan(&id)
	return id, err
}

func (s *Store) UpdateRequirement(ctx context.Context, id string, requiredCount int) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE shift_position_requirements SET required_count = $2 WHERE id = $1
  `, id, requiredCount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteRequirement(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM shift_position_requirements WHERE id = $1", id)
	return err
}

func (s *Store) ListAvailability(ctx context.Context, shiftID, employeeID, scheduleID string) ([]Availability, error) {
	where := []string{"TRUE"}
	args := []any{}
	if shiftID != "" {
		args = append(args, shiftID)
		where = append(where, fmt.Sprintf("a.shift_id = $%d::uuid", len(args)))
	}
	if employeeID != "" {
		args = append(args, employeeID)
		where = append(where, fmt.Sprintf("a.employee_id = $%d::uuid", len(args)))
	}
	if scheduleID != "" {
		args = append(args, scheduleID)
		where = append(where, fmt.Sprintf("a.shift_id IN (SELECT id FROM shifts WHERE schedule_id = $%d::uuid)", len(args)))
	}

	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
    SELECT a.id, COALESCE(a.shift_id::text, ''), COALESCE(a.employee_id::text, ''), a.note, a.created_at,
           COALESCE(array_agg(ap.position_id::text) FILTER (WHERE ap.position_id IS NOT NULL), '{}')
    FROM employee_availability a
    LEFT JOIN employee_availability_positions ap ON ap.availability_id = a.id
    WHERE %s
    GROUP BY a.id
    ORDER BY a.created_at
  `, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	availability := make([]Availability, 0)
	for rows.Next() {
		var a Availability
		if err := rows.Scan(&a.ID, &a.ShiftID, &a.EmployeeID, &a.Note, &a.CreatedAt, &a.PositionIDs); err != nil {
			return nil, err
		}
		availability = append(availability, a)
	}
	return availability, rows.Err()
}

func (s *Store) CreateAvailability(ctx context.Context, a Availability) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO employee_availability (shift_id, employee_id, note)
    VALUES ($1, $2, $3)
    RETURNING id
  `, a.ShiftID, a.EmployeeID, a.Note).Scan(&id); err != nil {
		return "", err
	}

	for _, positionID := range a.PositionIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO employee_availability_positions (availability_id, position_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, id, positionID); err != nil {
			return "", err
		}
	}

	return id, tx.Commit(ctx)
}

func (s *Store) GetAvailability(ctx context.Context, id string) (*Availability, error) {
	var a Availability
	err := s.DB.QueryRow(ctx, `
    SELECT a.id, COALESCE(a.shift_id::text, ''), COALESCE(a.employee_id::text, ''), a.note, a.created_at,
           COALESCE(array_agg(ap.position_id::text) FILTER (WHERE ap.position_id IS NOT NULL), '{}')
    FROM employee_availability a
    LEFT JOIN employee_availability_positions ap ON ap.availability_id = a.id
    WHERE a.id = $1
    GROUP BY a.id
  `, id).Scan(&a.ID, &a.ShiftID, &a.EmployeeID, &a.Note, &a.CreatedAt, &a.PositionIDs)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) DeleteAvailability(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM employee_availability WHERE id = $1", id)
	return err
}
