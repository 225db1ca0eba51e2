package payroll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/contracts"
	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

// Service computes payroll lines from contracts and clocked
// attendance.
type Service struct {
	store      *Store
	employees  *employees.Store
	contracts  *contracts.Store
	attendance *attendance.Store
	logger     *slog.Logger
}

func NewService(store *Store, empStore *employees.Store, conStore *contracts.Store, attStore *attendance.Store, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		employees:  empStore,
		contracts:  conStore,
		attendance: attStore,
		logger:     logger,
	}
}

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Period     Period   `json:"period"`
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	NoContract []string `json:"no_contract"`
}

// Generate creates a draft payroll for every active employee with an
// active contract covering the period. Employees already holding a
// payroll for the month are skipped, never overwritten.
func (s *Service) Generate(ctx context.Context, period Period) (*GenerateResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	first, last := period.Bounds()

	staff, _, err := s.employees.ListEmployees(ctx, employees.ListOptions{
		Filters: map[string]string{"status": employees.StatusActive},
	})
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{Period: period, NoContract: make([]string, 0)}
	for _, emp := range staff {
		contract, err := s.contracts.ActiveContract(ctx, emp.ID, first.Format("2006-01-02"))
		if errors.Is(err, pgx.ErrNoRows) {
			result.NoContract = append(result.NoContract, emp.ID)
			continue
		}
		if err != nil {
			return nil, err
		}

		worked, err := s.attendance.ApprovedHours(ctx, emp.ID, first, last)
		if err != nil {
			return nil, err
		}

		base := contract.EffectiveBaseSalary()
		var hourlyRate, multiplier float64
		if scheme, ok := contract.SalaryScheme.Record(); ok {
			hourlyRate = scheme.HourlyRate
			multiplier = scheme.OvertimeMultiplier
		}

		line := Payroll{
			Employee:    expand.Reference[employees.Employee](emp.ID),
			PeriodYear:  period.Year,
			PeriodMonth: period.Month,
			BaseSalary:  base,
			OvertimePay: OvertimePay(worked, base, hourlyRate, multiplier),
		}
		created, err := s.store.InsertGenerated(ctx, line)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}

	s.logger.Info("payroll generated",
		"period", period.String(),
		"created", result.Created,
		"skipped", result.Skipped,
		"no_contract", len(result.NoContract))
	return result, nil
}
