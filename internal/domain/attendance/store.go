package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

var (
	ErrDecided    = errors.New("adjustment has already been decided")
	ErrNoEmployee = errors.New("card is not linked to an active employee")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListDevices(ctx context.Context) ([]Device, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, location, active, created_at
    FROM attendance_devices ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]Device, 0)
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.Name, &d.Location, &d.Active, &d.CreatedAt); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *Store) GetDevice(ctx context.Context, id string) (*Device, error) {
	var d Device
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, location, active, created_at
    FROM attendance_devices WHERE id = $1
  `, id).Scan(&d.ID, &d.Name, &d.Location, &d.Active, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateDevice(ctx context.Context, d Device) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO attendance_devices (name, location, active)
    VALUES ($1, $2, $3) RETURNING id
  `, d.Name, d.Location, d.Active).Scan(&id)
	return id, err
}

func (s *Store) UpdateDevice(ctx context.Context, id string, d Device) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_devices SET name = $2, location = $3, active = $4
    WHERE id = $1
  `, id, d.Name, d.Location, d.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteDevice(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM attendance_devices WHERE id = $1`, id)
	return err
}

const logColumns = `
  l.id, COALESCE(l.employee_id::text, ''), COALESCE(l.device_id::text, ''),
  l.work_date, l.clock_in, l.clock_out, l.created_at,
  e.id IS NOT NULL, COALESCE(e.employee_code, ''), COALESCE(e.first_name, ''),
  COALESCE(e.last_name, ''), COALESCE(e.full_name, '')`

func scanLog(scan func(...any) error) (Log, error) {
	var l Log
	var employeeID string
	var hasEmployee bool
	var emp employees.Employee
	err := scan(
		&l.ID, &employeeID, &l.DeviceID,
		&l.WorkDate, &l.ClockIn, &l.ClockOut, &l.CreatedAt,
		&hasEmployee, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.FullName,
	)
	if err != nil {
		return Log{}, err
	}
	if hasEmployee {
		emp.ID = employeeID
		l.Employee = expand.Expanded(employeeID, &emp)
	} else if employeeID != "" {
		l.Employee = expand.Reference[employees.Employee](employeeID)
	}
	return l, nil
}

type LogListOptions struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	Expand     bool
	Limit      int
	Offset     int
}

func (s *Store) ListLogs(ctx context.Context, opts LogListOptions) ([]Log, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if opts.EmployeeID != "" {
		args = append(args, opts.EmployeeID)
		where = append(where, fmt.Sprintf("l.employee_id = $%d::uuid", len(args)))
	}
	if !opts.From.IsZero() {
		args = append(args, opts.From)
		where = append(where, fmt.Sprintf("l.work_date >= $%d", len(args)))
	}
	if !opts.To.IsZero() {
		args = append(args, opts.To)
		where = append(where, fmt.Sprintf("l.work_date <= $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM attendance_logs l WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	join := "LEFT JOIN employees e ON FALSE"
	if opts.Expand {
		join = "LEFT JOIN employees e ON e.id = l.employee_id"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM attendance_logs l %s WHERE %s ORDER BY l.work_date DESC, l.id",
		logColumns, join, whereClause,
	)
	if opts.Limit > 0 {
		args = append(args, opts.Limit, opts.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := make([]Log, 0)
	for rows.Next() {
		l, err := scanLog(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (s *Store) GetLog(ctx context.Context, id string) (*Log, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM attendance_logs l
    LEFT JOIN employees e ON e.id = l.employee_id
    WHERE l.id = $1
  `, logColumns), id)
	l, err := scanLog(row.Scan)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Punch records a clock event. The first punch of a work date opens
// the log with clock_in; any later punch moves clock_out forward.
func (s *Store) Punch(ctx context.Context, employeeID, deviceID string, at time.Time) (*Log, error) {
	workDate := at.UTC().Truncate(24 * time.Hour)

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `
    SELECT status = 'active' FROM employees WHERE id = $1
  `, employeeID).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
		return nil, ErrNoEmployee
	}
	if err != nil {
		return nil, err
	}

	var logID string
	err = tx.QueryRow(ctx, `
    SELECT id FROM attendance_logs
    WHERE employee_id = $1 AND work_date = $2
    FOR UPDATE
  `, employeeID, workDate).Scan(&logID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
      INSERT INTO attendance_logs (employee_id, device_id, work_date, clock_in)
      VALUES ($1, NULLIF($2, '')::uuid, $3, $4) RETURNING id
    `, employeeID, deviceID, workDate, at).Scan(&logID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		_, err = tx.Exec(ctx, `
      UPDATE attendance_logs
      SET clock_out = GREATEST(COALESCE(clock_out, $2), $2),
          device_id = COALESCE(NULLIF($3, '')::uuid, device_id)
      WHERE id = $1
    `, logID, at, deviceID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetLog(ctx, logID)
}

const adjustmentColumns = `
  a.id, COALESCE(a.employee_id::text, ''), COALESCE(a.log_id::text, ''),
  a.work_date, a.old_clock_in, a.old_clock_out,
  a.proposed_clock_in, a.proposed_clock_out,
  a.reason, a.status, COALESCE(a.decided_by::text, ''), a.decided_at, a.created_at,
  e.id IS NOT NULL, COALESCE(e.employee_code, ''), COALESCE(e.first_name, ''),
  COALESCE(e.last_name, ''), COALESCE(e.full_name, '')`

func scanAdjustment(scan func(...any) error) (Adjustment, error) {
	var a Adjustment
	var employeeID string
	var hasEmployee bool
	var emp employees.Employee
	err := scan(
		&a.ID, &employeeID, &a.LogID,
		&a.WorkDate, &a.OldClockIn, &a.OldClockOut,
		&a.ProposedClockIn, &a.ProposedClockOut,
		&a.Reason, &a.Status, &a.DecidedBy, &a.DecidedAt, &a.CreatedAt,
		&hasEmployee, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.FullName,
	)
	if err != nil {
		return Adjustment{}, err
	}
	if hasEmployee {
		emp.ID = employeeID
		a.Employee = expand.Expanded(employeeID, &emp)
	} else if employeeID != "" {
		a.Employee = expand.Reference[employees.Employee](employeeID)
	}
	return a, nil
}

type AdjustmentListOptions struct {
	EmployeeID string
	Status     string
	Expand     bool
	Limit      int
	Offset     int
}

func (s *Store) ListAdjustments(ctx context.Context, opts AdjustmentListOptions) ([]Adjustment, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if opts.EmployeeID != "" {
		args = append(args, opts.EmployeeID)
		where = append(where, fmt.Sprintf("a.employee_id = $%d::uuid", len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM attendance_adjustments a WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	join := "LEFT JOIN employees e ON FALSE"
	if opts.Expand {
		join = "LEFT JOIN employees e ON e.id = a.employee_id"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM attendance_adjustments a %s WHERE %s ORDER BY a.created_at DESC, a.id",
		adjustmentColumns, join, whereClause,
	)
	if opts.Limit > 0 {
		args = append(args, opts.Limit, opts.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	adjustments := make([]Adjustment, 0)
	for rows.Next() {
		a, err := scanAdjustment(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, total, rows.Err()
}

func (s *Store) GetAdjustment(ctx context.Context, id string) (*Adjustment, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM attendance_adjustments a
    LEFT JOIN employees e ON e.id = a.employee_id
    WHERE a.id = $1
  `, adjustmentColumns), id)
	a, err := scanAdjustment(row.Scan)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdjustment snapshots the current log clocks as the old values
// so the decision screen shows what the approval would replace.
func (s *Store) CreateAdjustment(ctx context.Context, a Adjustment) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var logID *string
	var oldIn, oldOut *time.Time
	err = tx.QueryRow(ctx, `
    SELECT id::text, clock_in, clock_out FROM attendance_logs
    WHERE employee_id = $1 AND work_date = $2
  `, a.Employee.ID(), a.WorkDate).Scan(&logID, &oldIn, &oldOut)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO attendance_adjustments
      (employee_id, log_id, work_date, old_clock_in, old_clock_out,
       proposed_clock_in, proposed_clock_out, reason, status)
    VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9)
    RETURNING id
  `, a.Employee.ID(), logID, a.WorkDate, oldIn, oldOut,
		a.ProposedClockIn, a.ProposedClockOut, a.Reason, AdjustmentPending).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

// UpdateAdjustment edits the proposed values of a still-pending
// request.
func (s *Store) UpdateAdjustment(ctx context.Context, id string, a Adjustment) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE attendance_adjustments
    SET proposed_clock_in = $2, proposed_clock_out = $3, reason = $4
    WHERE id = $1 AND status = $5
  `, id, a.ProposedClockIn, a.ProposedClockOut, a.Reason, AdjustmentPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetAdjustment(ctx, id); err != nil {
			return err
		}
		return ErrDecided
	}
	return nil
}

func (s *Store) DeleteAdjustment(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM attendance_adjustments WHERE id = $1`, id)
	return err
}

// Decide approves or rejects a pending adjustment. Approval writes the
// proposed clocks into the attendance log, creating it when the work
// date had none.
func (s *Store) Decide(ctx context.Context, id string, approve bool, decidedBy string) (*Adjustment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var a Adjustment
	var employeeID, logID string
	err = tx.QueryRow(ctx, `
    SELECT id, COALESCE(employee_id::text, ''), COALESCE(log_id::text, ''),
           work_date, proposed_clock_in, proposed_clock_out, status
    FROM attendance_adjustments WHERE id = $1 FOR UPDATE
  `, id).Scan(&a.ID, &employeeID, &logID, &a.WorkDate,
		&a.ProposedClockIn, &a.ProposedClockOut, &a.Status)
	if err != nil {
		return nil, err
	}
	if a.Status != AdjustmentPending {
		return nil, ErrDecided
	}

	status := AdjustmentRejected
	if approve {
		status = AdjustmentApproved
	}

	if approve {
		err = tx.QueryRow(ctx, `
      INSERT INTO attendance_logs (employee_id, work_date, clock_in, clock_out)
      VALUES ($1, $2, $3, $4)
      ON CONFLICT (employee_id, work_date)
      DO UPDATE SET clock_in = EXCLUDED.clock_in, clock_out = EXCLUDED.clock_out
      RETURNING id::text
    `, employeeID, a.WorkDate, a.ProposedClockIn, a.ProposedClockOut).Scan(&logID)
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx, `
    UPDATE attendance_adjustments
    SET status = $2, decided_by = NULLIF($3, '')::uuid, decided_at = now(), log_id = NULLIF($4, '')::uuid
    WHERE id = $1
  `, id, status, decidedBy, logID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetAdjustment(ctx, id)
}

// ApprovedHours sums worked hours from the period's logs for payroll.
func (s *Store) ApprovedHours(ctx context.Context, employeeID string, from, to time.Time) (float64, error) {
	var hours float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (clock_out - clock_in)) / 3600), 0)
    FROM attendance_logs
    WHERE employee_id = $1 AND work_date BETWEEN $2 AND $3
      AND clock_in IS NOT NULL AND clock_out IS NOT NULL AND clock_out > clock_in
  `, employeeID, from, to).Scan(&hours)
	return hours, err
}
