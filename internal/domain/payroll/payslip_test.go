package payroll

import (
	"bytes"
	"testing"

	"hrms/internal/domain/employees"
	"hrms/internal/domain/expand"
)

func TestWritePayslipPDF(t *testing.T) {
	emp := &employees.Employee{
		ID:           "e1",
		EmployeeCode: "EMP-001",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
	}
	p := &Payroll{
		ID:          "p1",
		Employee:    expand.Expanded("e1", emp),
		PeriodYear:  2026,
		PeriodMonth: 3,
		BaseSalary:  3000,
		Bonus:       200,
		GrossSalary: 3200,
		NetSalary:   3050,
	}

	var buf bytes.Buffer
	if err := WritePayslipPDF(&buf, p); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
}

func TestWritePayslipPDFRequiresExpandedEmployee(t *testing.T) {
	p := &Payroll{ID: "p1", Employee: expand.Reference[employees.Employee]("e1")}
	var buf bytes.Buffer
	if err := WritePayslipPDF(&buf, p); err == nil {
		t.Fatal("plain reference must be rejected")
	}
}
