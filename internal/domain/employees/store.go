package employees

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

type ListOptions struct {
	Filters        map[string]string
	Search         string
	OrderBy        string
	Limit          int
	Offset         int
	ExpandPosition bool
}

const employeeColumns = `
  e.id, e.employee_code, e.first_name, e.last_name, e.full_name, e.email,
  e.phone, e.address, e.date_of_birth, e.gender, e.status,
  COALESCE(e.position_id::text, ''),
  e.max_hours_per_week, e.max_consecutive_days, e.min_rest_hours_between_shifts,
  e.created_at, e.updated_at,
  p.id IS NOT NULL, COALESCE(p.name, ''), COALESCE(p.description, '')`

func scanEmployee(scan func(...any) error) (Employee, error) {
	var emp Employee
	var positionID string
	var hasPosition bool
	var positionName, positionDescription string
	err := scan(
		&emp.ID, &emp.EmployeeCode, &emp.FirstName, &emp.LastName, &emp.FullName, &emp.Email,
		&emp.Phone, &emp.Address, &emp.DateOfBirth, &emp.Gender, &emp.Status,
		&positionID,
		&emp.MaxHoursPerWeek, &emp.MaxConsecutiveDays, &emp.MinRestHoursBetweenShifts,
		&emp.CreatedAt, &emp.UpdatedAt,
		&hasPosition, &positionName, &positionDescription,
	)
	if err != nil {
		return Employee{}, err
	}
	if hasPosition {
		emp.Position = expand.Expanded(positionID, &Position{ID: positionID, Name: positionName, Description: positionDescription})
	} else if positionID != "" {
		emp.Position = expand.Reference[Position](positionID)
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, opts ListOptions) ([]Employee, int, error) {
	where := []string{"TRUE"}
	args := []any{}

	addFilter := func(column, value string) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if v, ok := opts.Filters["status"]; ok {
		addFilter("e.status", v)
	}
	if v, ok := opts.Filters["gender"]; ok {
		addFilter("e.gender", v)
	}
	if v, ok := opts.Filters["position_id"]; ok {
		args = append(args, v)
		where = append(where, fmt.Sprintf("e.position_id = $%d::uuid", len(args)))
	}
	if opts.Search != "" {
		args = append(args, "%"+opts.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(e.first_name ILIKE $%d OR e.last_name ILIKE $%d OR e.full_name ILIKE $%d OR e.employee_code ILIKE $%d)", n, n, n, n))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx,
		"SELECT COUNT(1) FROM employees e WHERE "+whereClause, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "e.employee_code"
	}

	join := "LEFT JOIN positions p ON FALSE"
	if opts.ExpandPosition {
		join = "LEFT JOIN positions p ON p.id = e.position_id"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM employees e %s WHERE %s ORDER BY %s",
		employeeColumns, join, whereClause, orderBy,
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

	employees := make([]Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}
	return employees, total, rows.Err()
}

func (s *Store) GetEmployee(ctx context.Context, id string, expandPosition bool) (*Employee, error) {
	join := "LEFT JOIN positions p ON FALSE"
	if expandPosition {
		join = "LEFT JOIN positions p ON p.id = e.position_id"
	}
	row := s.DB.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM employees e %s WHERE e.id = $1", employeeColumns, join), id)
	emp, err := scanEmployee(row.Scan)
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO employees (
      employee_code, first_name, last_name, full_name, email, phone, address,
      date_of_birth, gender, status, position_id,
      max_hours_per_week, max_consecutive_days, min_rest_hours_between_shifts
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,'')::uuid,$12,$13,$14)
    RETURNING id
  `,
		emp.EmployeeCode, emp.FirstName, emp.LastName, emp.FullName, emp.Email, emp.Phone, emp.Address,
		emp.DateOfBirth, emp.Gender, emp.Status, emp.Position.ID(),
		emp.MaxHoursPerWeek, emp.MaxConsecutiveDays, emp.MinRestHoursBetweenShifts,
	).Scan(&id)
	return id, err
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, emp Employee) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET
      employee_code = $2, first_name = $3, last_name = $4, full_name = $5,
      email = $6, phone = $7, address = $8, date_of_birth = $9, gender = $10,
      status = $11, position_id = NULLIF($12,'')::uuid,
      max_hours_per_week = $13, max_consecutive_days = $14,
      min_rest_hours_between_shifts = $15, updated_at = now()
    WHERE id = $1
  `,
		id, emp.EmployeeCode, emp.FirstName, emp.LastName, emp.FullName,
		emp.Email, emp.Phone, emp.Address, emp.DateOfBirth, emp.Gender,
		emp.Status, emp.Position.ID(),
		emp.MaxHoursPerWeek, emp.MaxConsecutiveDays, emp.MinRestHoursBetweenShifts,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Terminate is the soft delete: the record stays, the status flips.
func (s *Store) Terminate(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE employees SET status = $2, updated_at = now() WHERE id = $1
  `, id, StatusTerminated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FullCreate is the wizard payload: employee plus user account plus
// RFID card, provisioned in one transaction.
type FullCreate struct {
	Employee     Employee
	Username     string
	PasswordHash string
	RoleID       string
	CardNumber   string
}

func (s *Store) CreateFull(ctx context.Context, payload FullCreate) (string, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	emp := payload.Employee
	var employeeID string
	err = tx.QueryRow(ctx, `
    INSERT INTO employees (
      employee_code, first_name, last_name, full_name, email, phone, address,
      date_of_birth, gender, status, position_id,
      max_hours_per_week, max_consecutive_days, min_rest_hours_between_shifts
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULLIF($11,'')::uuid,$12,$13,$14)
    RETURNING id
  `,
		emp.EmployeeCode, emp.FirstName, emp.LastName, emp.FullName, emp.Email, emp.Phone, emp.Address,
		emp.DateOfBirth, emp.Gender, emp.Status, emp.Position.ID(),
		emp.MaxHoursPerWeek, emp.MaxConsecutiveDays, emp.MinRestHoursBetweenShifts,
	).Scan(&employeeID)
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `
    INSERT INTO users (username, email, password_hash, role_id, employee_id)
    VALUES ($1, $2, $3, $4, $5)
  `, payload.Username, emp.Email, payload.PasswordHash, payload.RoleID, employeeID); err != nil {
		return "", err
	}

	if payload.CardNumber != "" {
		if _, err := tx.Exec(ctx, `
      INSERT INTO rfid_cards (employee_id, card_number)
      VALUES ($1, $2)
    `, employeeID, payload.CardNumber); err != nil {
			return "", err
		}
	}

	return employeeID, tx.Commit(ctx)
}

func (s *Store) CardByNumber(ctx context.Context, cardNumber string) (*RFIDCard, error) {
	var card RFIDCard
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, card_number, active, issued_at
    FROM rfid_cards
    WHERE card_number = $1 AND active
  `, cardNumber).Scan(&card.ID, &card.EmployeeID, &card.CardNumber, &card.Active, &card.IssuedAt)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, description, created_at FROM positions ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]Position, 0)
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.ID, &pos.Name, &pos.Description, &pos.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *Store) GetPosition(ctx context.Context, id string) (*Position, error) {
	var pos Position
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, description, created_at FROM positions WHERE id = $1
  `, id).Scan(&pos.ID, &pos.Name, &pos.Description, &pos.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *Store) CreatePosition(ctx context.Context, name, description string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO positions (name, description) VALUES ($1, $2) RETURNING id
  `, name, description).Scan(&id)
	return id, err
}

func (s *Store) UpdatePosition(ctx context.Context, id, name, description string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE positions SET name = $2, description = $3 WHERE id = $1
  `, id, name, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeletePosition(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, "DELETE FROM positions WHERE id = $1", id)
	return err
}
