package payroll

import "testing"

func TestCompute(t *testing.T) {
	gross, net := Compute(Breakdown{
		BaseSalary:  3000,
		Allowance:   200,
		Bonus:       50,
		OvertimePay: 150,
		Deduction:   300,
		Penalty:     25,
	})
	if gross != 3400 {
		t.Fatalf("expected gross 3400, got %v", gross)
	}
	if net != 3075 {
		t.Fatalf("expected net 3075, got %v", net)
	}
}

func TestComputeRoundsToCents(t *testing.T) {
	gross, net := Compute(Breakdown{BaseSalary: 1000.005, Deduction: 0.001})
	if gross != 1000.01 {
		t.Fatalf("expected gross 1000.01, got %v", gross)
	}
	if net != 1000.01 {
		t.Fatalf("expected net 1000.01, got %v", net)
	}
}

func TestOvertimePay(t *testing.T) {
	if got := OvertimePay(150, 3200, 0, 0); got != 0 {
		t.Fatalf("no overtime below the baseline, got %v", got)
	}
	// 10 extra hours at an explicit 20/h rate, double time
	if got := OvertimePay(170, 3200, 20, 2); got != 400 {
		t.Fatalf("expected 400, got %v", got)
	}
	// rate derived from base salary (3200/160 = 20/h), default 1.5x
	if got := OvertimePay(170, 3200, 0, 0); got != 300 {
		t.Fatalf("expected 300, got %v", got)
	}
}

func TestCanTransition(t *testing.T) {
	legal := [][2]string{
		{StatusDraft, StatusPendingApproval},
		{StatusPendingApproval, StatusApproved},
		{StatusApproved, StatusPaid},
	}
	for _, step := range legal {
		if !CanTransition(step[0], step[1]) {
			t.Fatalf("%s -> %s must be allowed", step[0], step[1])
		}
	}
	illegal := [][2]string{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusPaid},
		{StatusApproved, StatusDraft},
		{StatusPaid, StatusDraft},
		{StatusPaid, StatusPaid},
	}
	for _, step := range illegal {
		if CanTransition(step[0], step[1]) {
			t.Fatalf("%s -> %s must be rejected", step[0], step[1])
		}
	}
}

func TestPeriodBounds(t *testing.T) {
	p := Period{Year: 2026, Month: 2}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	first, last := p.Bounds()
	if first.Format("2006-01-02") != "2026-02-01" {
		t.Fatalf("unexpected first day %v", first)
	}
	if last.Format("2006-01-02") != "2026-02-28" {
		t.Fatalf("unexpected last day %v", last)
	}

	if err := (Period{Year: 2026, Month: 13}).Validate(); err == nil {
		t.Fatalf("month 13 must fail validation")
	}
}
