package payroll

import (
	"context"
	"fmt"
	"strings"

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

const payrollColumns = `
  m.id, COALESCE(m.employee_id::text, ''), m.period_year, m.period_month,
  m.base_salary, m.allowance, m.bonus, m.overtime_pay,
  m.deduction, m.penalty, m.gross_salary, m.net_salary,
  m.status, m.created_at, m.updated_at,
  e.id IS NOT NULL, COALESCE(e.employee_code, ''), COALESCE(e.first_name, ''),
  COALESCE(e.last_name, ''), COALESCE(e.full_name, ''), COALESCE(e.email, '')`

func scanPayroll(scan func(...any) error) (Payroll, error) {
	var p Payroll
	var employeeID string
	var hasEmployee bool
	var emp employees.Employee
	err := scan(
		&p.ID, &employeeID, &p.PeriodYear, &p.PeriodMonth,
		&p.BaseSalary, &p.Allowance, &p.Bonus, &p.OvertimePay,
		&p.Deduction, &p.Penalty, &p.GrossSalary, &p.NetSalary,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
		&hasEmployee, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.FullName, &emp.Email,
	)
	if err != nil {
		return Payroll{}, err
	}
	if hasEmployee {
		emp.ID = employeeID
		p.Employee = expand.Expanded(employeeID, &emp)
	} else if employeeID != "" {
		p.Employee = expand.Reference[employees.Employee](employeeID)
	}
	return p, nil
}

type ListOptions struct {
	EmployeeID string
	Status     string
	Year       int
	Month      int
	Expand     bool
	Limit      int
	Offset     int
}

func (s *Store) ListPayrolls(ctx context.Context, opts ListOptions) ([]Payroll, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if opts.EmployeeID != "" {
		args = append(args, opts.EmployeeID)
		where = append(where, fmt.Sprintf("m.employee_id = $%d::uuid", len(args)))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		where = append(where, fmt.Sprintf("m.status = $%d", len(args)))
	}
	if opts.Year != 0 {
		args = append(args, opts.Year)
		where = append(where, fmt.Sprintf("m.period_year = $%d", len(args)))
	}
	if opts.Month != 0 {
		args = append(args, opts.Month)
		where = append(where, fmt.Sprintf("m.period_month = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM monthly_payrolls m WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	join := "LEFT JOIN employees e ON FALSE"
	if opts.Expand {
		join = "LEFT JOIN employees e ON e.id = m.employee_id"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM monthly_payrolls m %s WHERE %s ORDER BY m.period_year DESC, m.period_month DESC, m.created_at",
		payrollColumns, join, whereClause,
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

	payrolls := make([]Payroll, 0)
	for rows.Next() {
		p, err := scanPayroll(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		payrolls = append(payrolls, p)
	}
	return payrolls, total, rows.Err()
}

func (s *Store) GetPayroll(ctx context.Context, id string) (*Payroll, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM monthly_payrolls m
    LEFT JOIN employees e ON e.id = m.employee_id
    WHERE m.id = $1
  `, payrollColumns), id)
	p, err := scanPayroll(row.Scan)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePayroll(ctx context.Context, p Payroll) (string, error) {
	gross, net := Compute(Breakdown{
		BaseSalary:  p.BaseSalary,
		Allowance:   p.Allowance,
		Bonus:       p.Bonus,
		OvertimePay: p.OvertimePay,
		Deduction:   p.Deduction,
		Penalty:     p.Penalty,
	})
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO monthly_payrolls
      (employee_id, period_year, period_month, base_salary, allowance, bonus,
       overtime_pay, deduction, penalty, gross_salary, net_salary, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING id
  `, p.Employee.ID(), p.PeriodYear, p.PeriodMonth, p.BaseSalary, p.Allowance,
		p.Bonus, p.OvertimePay, p.Deduction, p.Penalty, gross, net, StatusDraft).Scan(&id)
	return id, err
}

// UpdatePayroll rewrites the breakdown of a draft; gross and net are
// recomputed, the status never changes here.
func (s *Store) UpdatePayroll(ctx context.Context, id string, p Payroll) error {
	gross, net := Compute(Breakdown{
		BaseSalary:  p.BaseSalary,
		Allowance:   p.Allowance,
		Bonus:       p.Bonus,
		OvertimePay: p.OvertimePay,
		Deduction:   p.Deduction,
		Penalty:     p.Penalty,
	})
	tag, err := s.DB.Exec(ctx, `
    UPDATE monthly_payrolls
    SET base_salary = $2, allowance = $3, bonus = $4, overtime_pay = $5,
        deduction = $6, penalty = $7, gross_salary = $8, net_salary = $9,
        updated_at = now()
    WHERE id = $1 AND status = $10
  `, id, p.BaseSalary, p.Allowance, p.Bonus, p.OvertimePay,
		p.Deduction, p.Penalty, gross, net, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPayroll(ctx, id); err != nil {
			return err
		}
		return ErrNotDraft
	}
	return nil
}

func (s *Store) DeletePayroll(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM monthly_payrolls WHERE id = $1 AND status = $2
  `, id, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPayroll(ctx, id); err != nil {
			return err
		}
		return ErrNotDraft
	}
	return nil
}

// Transition advances the payroll one step along the status flow. The
// row is locked so concurrent decisions serialize.
func (s *Store) Transition(ctx context.Context, id, to string) (*Payroll, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `
    SELECT status FROM monthly_payrolls WHERE id = $1 FOR UPDATE
  `, id).Scan(&current)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, current, to)
	}

	_, err = tx.Exec(ctx, `
    UPDATE monthly_payrolls SET status = $2, updated_at = now() WHERE id = $1
  `, id, to)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetPayroll(ctx, id)
}

// InsertGenerated adds a computed line, skipping employees that
// already have a payroll for the period.
func (s *Store) InsertGenerated(ctx context.Context, p Payroll) (bool, error) {
	gross, net := Compute(Breakdown{
		BaseSalary:  p.BaseSalary,
		Allowance:   p.Allowance,
		Bonus:       p.Bonus,
		OvertimePay: p.OvertimePay,
		Deduction:   p.Deduction,
		Penalty:     p.Penalty,
	})
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO monthly_payrolls
      (employee_id, period_year, period_month, base_salary, allowance, bonus,
       overtime_pay, deduction, penalty, gross_salary, net_salary, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    ON CONFLICT (employee_id, period_year, period_month) DO NOTHING
  `, p.Employee.ID(), p.PeriodYear, p.PeriodMonth, p.BaseSalary, p.Allowance,
		p.Bonus, p.OvertimePay, p.Deduction, p.Penalty, gross, net, StatusDraft)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
