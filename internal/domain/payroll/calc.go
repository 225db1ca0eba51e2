package payroll

import "math"

// StandardMonthlyHours is the full-time baseline used to split worked
// hours into regular and overtime.
const StandardMonthlyHours = 160.0

const defaultOvertimeMultiplier = 1.5

// Breakdown carries the pay components of one payroll line.
type Breakdown struct {
	BaseSalary  float64
	Allowance   float64
	Bonus       float64
	OvertimePay float64
	Deduction   float64
	Penalty     float64
}

// Compute derives gross and net from the breakdown. Gross sums the
// earning components, net subtracts the withholdings; both rounded to
// cents.
func Compute(b Breakdown) (gross, net float64) {
	gross = round2(b.BaseSalary + b.Allowance + b.Bonus + b.OvertimePay)
	net = round2(gross - b.Deduction - b.Penalty)
	return gross, net
}

// OvertimePay prices the hours beyond the full-time baseline. The
// hourly rate falls back to base salary spread over the baseline when
// the contract carries no explicit rate; a zero multiplier falls back
// to the default.
func OvertimePay(workedHours, baseSalary, hourlyRate, multiplier float64) float64 {
	overtime := workedHours - StandardMonthlyHours
	if overtime <= 0 {
		return 0
	}
	rate := hourlyRate
	if rate == 0 && baseSalary > 0 {
		rate = baseSalary / StandardMonthlyHours
	}
	if multiplier == 0 {
		multiplier = defaultOvertimeMultiplier
	}
	return round2(overtime * rate * multiplier)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
