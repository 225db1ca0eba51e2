package contracts

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/expand"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const contractColumns = `
  c.id, COALESCE(c.employee_id::text, ''), c.contract_type, c.start_date, c.end_date,
  COALESCE(c.salary_scheme_id::text, ''), c.base_salary, c.active, c.created_at, c.updated_at,
  s.id IS NOT NULL, COALESCE(s.name, ''), COALESCE(s.base_salary, 0),
  COALESCE(s.hourly_rate, 0), COALESCE(s.overtime_multiplier, 0)`

func scanContract(scan func(...any) error) (Contract, error) {
	var c Contract
	var schemeID string
	var hasScheme bool
	var scheme SalaryScheme
	err := scan(
		&c.ID, &c.EmployeeID, &c.ContractType, &c.StartDate, &c.EndDate,
		&schemeID, &c.BaseSalary, &c.Active, &c.CreatedAt, &c.UpdatedAt,
		&hasScheme, &scheme.Name, &scheme.BaseSalary, &scheme.HourlyRate, &scheme.OvertimeMultiplier,
	)
	if err != nil {
		return Contract{}, err
	}
	if hasScheme {
		scheme.ID = schemeID
		c.SalaryScheme = expand.Expanded(schemeID, &scheme)
	} else if schemeID != "" {
		c.SalaryScheme = expand.Reference[SalaryScheme](schemeID)
	}
	return c, nil
}

type ListOptions struct {
	Filters      map[string]string
	Limit        int
	Offset       int
	ExpandScheme bool
}

func (s *Store) ListContracts(ctx context.Context, opts ListOptions) ([]Contract, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	if v, ok := opts.Filters["employee_id"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("c.employee_id = $%d::uuid", len(args)))
	}
	if v, ok := opts.Filters["contract_type"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("c.contract_type = $%d", len(args)))
	}
	if v, ok := opts.Filters["active"]; ok {
		args = append(args, v == "true")
		where = append(where, fmt.Sprintf("c.active = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM contracts c WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	join := "LEFT JOIN salary_schemes s ON FALSE"
	if opts.ExpandScheme {
		join = "LEFT JOIN salary_schemes s ON s.id = c.salary_scheme_id"
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM contracts c %s WHERE %s ORDER BY c.start_date DESC LIMIT $%d OFFSET $%d",
		contractColumns, join, whereClause, len(args)-1, len(args),
	)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	contracts := make([]Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, c)
	}
	return contracts, total, rows.Err()
}

func (s *Store) GetContract(ctx context.Context, id string) (*Contract, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM contracts c
    LEFT JOIN salary_schemes s ON s.id = c.salary_scheme_id
    WHERE c.id = $1
  `, contractColumns), id)
	c, err := scanContract(row.Scan)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContract inserts the contract and, when it is active,
// deactivates any other active contract of the same employee that
// overlaps its date range.
func (s *Store) CreateContract(ctx context.Context, c Contract) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.Active {
		if err := deactivateOverlapping(ctx, tx, c, ""); err != nil {
			return "", err
		}
	}

	var id string
	err = tx.QueryRow(ctx, `
    INSERT INTO contracts (employee_id, contract_type, start_date, end_date, salary_scheme_id, base_salary, active)
    VALUES ($1, $2, $3, $4, NULLIF($5,'')::uuid, $6, $7)
    RETURNING id
  `, c.EmployeeID, c.ContractType, c.StartDate, c.EndDate, c.SalaryScheme.ID(), c.BaseSalary, c.Active).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, tx.Commit(ctx)
}

func (s *Store) UpdateContract(ctx context.Context, id string, c Contract) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.Active {
		if err := deactivateOverlapping(ctx, tx, c, id); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx, `
    UPDATE contracts SET
      contract_type = $2, start_date = $3, end_date = $4,
      salary_scheme_id = NULLIF($5,'')::uuid, base_salary = $6, active = $7, updated_at = now()
    WHERE id = $1
  `, id, c.ContractType, c.StartDate, c.EndDate, c.SalaryScheme.ID(), c.BaseSalary, c.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func deactivateOverlapping(ctx context.Context, tx pgx.Tx, c Contract, excludeID string) error {
	_, err := tx.Exec(ctx, `
    UPDATE contracts SET active = FALSE, updated_at = now()
    WHERE employee_id = $1 AND active
      AND ($2 = '' OR id <> $2::uuid)
      AND (end_date IS NULL OR end_date >= $3)
      AND ($4::date IS NULL OR start_date <= $4)
  `, c.EmployeeID, excludeID, c.StartDate, c.EndDate)
	return err
}

func (s *Store) DeleteContract(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM contracts WHERE id = $1", id)
	return err
}

// ActiveContract returns the employee's contract in force on the given date.
func (s *Store) ActiveContract(ctx context.Context, employeeID string, on string) (*Contract, error) {
	row := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT %s FROM contracts c
    LEFT JOIN salary_schemes s ON s.id = c.salary_scheme_id
    WHERE c.employee_id = $1 AND c.active
      AND c.start_date <= $2::date
      AND (c.end_date IS NULL OR c.end_date >= $2::date)
    ORDER BY c.start_date DESC
    LIMIT 1
  `, contractColumns), employeeID, on)
	c, err := scanContract(row.Scan)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListSalarySchemes(ctx context.Context) ([]SalaryScheme, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, base_salary, hourly_rate, overtime_multiplier, created_at
    FROM salary_schemes ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schemes := make([]SalaryScheme, 0)
	for rows.Next() {
		var scheme SalaryScheme
		if err := rows.Scan(&scheme.ID, &scheme.Name, &scheme.BaseSalary, &scheme.HourlyRate, &scheme.OvertimeMultiplier, &scheme.CreatedAt); err != nil {
			return nil, err
		}
		schemes = append(schemes, scheme)
	}
	return schemes, rows.Err()
}

func (s *Store) GetSalaryScheme(ctx context.Context, id string) (*SalaryScheme, error) {
	var scheme SalaryScheme
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, base_salary, hourly_rate, overtime_multiplier, created_at
    FROM salary_schemes WHERE id = $1
  `, id).Scan(&scheme.ID, &scheme.Name, &scheme.BaseSalary, &scheme.HourlyRate, &scheme.OvertimeMultiplier, &scheme.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &scheme, nil
}

func (s *Store) CreateSalaryScheme(ctx context.Context, scheme SalaryScheme) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO salary_schemes (name, base_salary, hourly_rate, overtime_multiplier)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, scheme.Name, scheme.BaseSalary, scheme.HourlyRate, scheme.OvertimeMultiplier).Scan(&id)
	return id, err
}
