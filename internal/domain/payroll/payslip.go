package payroll

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePayslipPDF renders the payroll line as a payslip and streams it
// to w. The employee record must be expanded on the payroll.
func WritePayslipPDF(w io.Writer, p *Payroll) error {
	emp, ok := p.Employee.Record()
	if !ok {
		return fmt.Errorf("payroll %s is missing its employee record", p.ID)
	}
	period := Period{Year: p.PeriodYear, Month: p.PeriodMonth}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.DisplayName(), emp.EmployeeCode))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", emp.Email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", period.String()))
	pdf.Ln(10)

	rows := []struct {
		label  string
		amount float64
	}{
		{"Base salary", p.BaseSalary},
		{"Allowance", p.Allowance},
		{"Bonus", p.Bonus},
		{"Overtime", p.OvertimePay},
		{"Deduction", -p.Deduction},
		{"Penalty", -p.Penalty},
	}
	for _, row := range rows {
		pdf.Cell(60, 8, row.label)
		pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", row.amount), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(60, 8, "Gross")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", p.GrossSalary), "", 0, "R", false, 0, "")
	pdf.Ln(7)
	pdf.Cell(60, 8, "Net")
	pdf.CellFormat(40, 8, fmt.Sprintf("%.2f", p.NetSalary), "", 0, "R", false, 0, "")

	return pdf.Output(w)
}
