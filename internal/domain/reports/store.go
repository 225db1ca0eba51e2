package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Dashboard is the landing-page summary.
type Dashboard struct {
	Headcount          map[string]int `json:"headcount"`
	PendingAdjustments int            `json:"pending_adjustments"`
	DraftPayrolls      int            `json:"draft_payrolls"`
	CurrentWeek        *WeekCoverage  `json:"current_week"`
}

// WeekCoverage is the staffing snapshot of the schedule covering
// today.
type WeekCoverage struct {
	ScheduleID    string    `json:"schedule_id"`
	WeekStart     time.Time `json:"week_start"`
	WeekEnd       time.Time `json:"week_end"`
	Status        string    `json:"status"`
	TotalRequired int       `json:"total_required"`
	TotalAssigned int       `json:"total_assigned"`
}

func (s *Store) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	dashboard := &Dashboard{Headcount: make(map[string]int)}

	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1) FROM employees GROUP BY status
  `)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return nil, err
		}
		dashboard.Headcount[status] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM attendance_adjustments WHERE status = 'pending'
  `).Scan(&dashboard.PendingAdjustments)
	if err != nil {
		return nil, err
	}

	err = s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM monthly_payrolls WHERE status = 'draft'
  `).Scan(&dashboard.DraftPayrolls)
	if err != nil {
		return nil, err
	}

	week, err := s.currentWeek(ctx, now)
	if err != nil {
		return nil, err
	}
	dashboard.CurrentWeek = week
	return dashboard, nil
}

func (s *Store) currentWeek(ctx context.Context, now time.Time) (*WeekCoverage, error) {
	var week WeekCoverage
	err := s.DB.QueryRow(ctx, `
    SELECT id::text, week_start, week_end, status FROM weekly_schedules
    WHERE week_start <= $1 AND week_end >= $1
    ORDER BY week_start DESC LIMIT 1
  `, now).Scan(&week.ScheduleID, &week.WeekStart, &week.WeekEnd, &week.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(r.required_count), 0),
           COALESCE(SUM(LEAST(r.required_count, (
             SELECT COUNT(1) FROM schedule_assignments a
             WHERE a.shift_id = r.shift_id AND a.position_id = r.position_id
           ))), 0)
    FROM shift_position_requirements r
    JOIN shifts s ON s.id = r.shift_id
    WHERE s.schedule_id = $1::uuid
  `, week.ScheduleID).Scan(&week.TotalRequired, &week.TotalAssigned)
	if err != nil {
		return nil, err
	}
	return &week, nil
}
