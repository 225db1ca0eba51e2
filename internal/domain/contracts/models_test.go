package contracts

import (
	"errors"
	"testing"
	"time"

	"hrms/internal/domain/expand"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateSchemeAndOverrideAreExclusive(t *testing.T) {
	override := 1200.0
	c := Contract{
		ContractType: TypeFullTime,
		StartDate:    date(2025, 1, 1),
		SalaryScheme: expand.Reference[SalaryScheme]("scheme-1"),
		BaseSalary:   &override,
	}
	if err := c.Validate(); !errors.Is(err, ErrSalaryConflict) {
		t.Fatalf("expected ErrSalaryConflict, got %v", err)
	}

	c.BaseSalary = nil
	if err := c.Validate(); err != nil {
		t.Fatalf("scheme-only contract must validate, got %v", err)
	}

	c.SalaryScheme = expand.Ref[SalaryScheme]{}
	if err := c.Validate(); !errors.Is(err, ErrNoSalary) {
		t.Fatalf("expected ErrNoSalary, got %v", err)
	}
}

func TestValidateDateRange(t *testing.T) {
	override := 900.0
	end := date(2024, 12, 31)
	c := Contract{
		ContractType: TypePartTime,
		StartDate:    date(2025, 1, 1),
		EndDate:      &end,
		BaseSalary:   &override,
	}
	if err := c.Validate(); !errors.Is(err, ErrBadDateRange) {
		t.Fatalf("expected ErrBadDateRange, got %v", err)
	}
}

func TestEffectiveBaseSalaryPrefersScheme(t *testing.T) {
	override := 800.0
	c := Contract{BaseSalary: &override}
	if got := c.EffectiveBaseSalary(); got != 800 {
		t.Fatalf("expected manual override 800, got %v", got)
	}

	c.BaseSalary = nil
	c.SalaryScheme = expand.Expanded("scheme-1", &SalaryScheme{ID: "scheme-1", BaseSalary: 1500})
	if got := c.EffectiveBaseSalary(); got != 1500 {
		t.Fatalf("expected scheme rate 1500, got %v", got)
	}
}

func TestOverlaps(t *testing.T) {
	endA := date(2025, 6, 30)
	a := Contract{StartDate: date(2025, 1, 1), EndDate: &endA}
	b := Contract{StartDate: date(2025, 6, 1)}
	if !a.Overlaps(&b) {
		t.Fatal("ranges sharing June must overlap")
	}

	c := Contract{StartDate: date(2025, 7, 1)}
	if a.Overlaps(&c) {
		t.Fatal("disjoint ranges must not overlap")
	}

	openEnded := Contract{StartDate: date(2024, 1, 1)}
	if !openEnded.Overlaps(&b) {
		t.Fatal("open-ended contract overlaps everything after its start")
	}
}
