package payslip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	paysliperrors "go-payroll/internal/payslip/errors"
)

// RenderPDF produces a one-page PDF rendering of a payslip. The document is
// assembled by hand rather than through a PDF library; payslips only need a
// fixed single-column text layout.
func (s *service) RenderPDF(ctx context.Context, entityID, employeeID, payslipID string) ([]byte, error) {
	slip, err := s.repo.FindByID(ctx, entityID, employeeID, payslipID)
	if err != nil {
		return nil, err
	}
	if slip == nil {
		return nil, paysliperrors.ErrPayslipNotFound
	}
	return buildPayslipPDF(payslipLines(slip))
}

func payslipLines(slip *Payslip) []string {
	lines := []string{
		fmt.Sprintf("Payslip %s", slip.ID),
		fmt.Sprintf("Period: %s", slip.PayrollPeriod.Format("January 2006")),
		fmt.Sprintf("Employee: %s", slip.EmployeeID),
		"",
	}

	var earnings EarningsDetails
	if err := json.Unmarshal(slip.EarningsDetails, &earnings); err == nil {
		lines = append(lines, "Earnings")
		if earnings.ProratedSalary != nil {
			lines = append(lines, fmt.Sprintf("  Base salary (prorated): %s %s", slip.Currency, *earnings.ProratedSalary))
		} else {
			lines = append(lines, fmt.Sprintf("  Base salary: %s %s", slip.Currency, earnings.BaseSalary))
		}
		for _, line := range earnings.Allowances {
			lines = append(lines, fmt.Sprintf("  %s: %s %s", line.Name, slip.Currency, line.Amount.StringFixed(2)))
		}
		for _, line := range earnings.Bonuses {
			lines = append(lines, fmt.Sprintf("  %s: %s %s", line.Name, slip.Currency, line.Amount.StringFixed(2)))
		}
		for _, line := range earnings.Refunds {
			lines = append(lines, fmt.Sprintf("  %s: %s %s", line.Name, slip.Currency, line.Amount.StringFixed(2)))
		}
	}

	var deductions DeductionsDetails
	if err := json.Unmarshal(slip.DeductionsDetails, &deductions); err == nil {
		lines = append(lines, "", "Deductions")
		for _, tax := range deductions.Taxes {
			lines = append(lines, fmt.Sprintf("  %s: %s %s", tax.Name, slip.Currency, tax.Amount.StringFixed(2)))
		}
		for _, ins := range deductions.Insurances {
			lines = append(lines, fmt.Sprintf("  %s: %s %s", ins.Name, slip.Currency, ins.EmployeeContribution.StringFixed(2)))
		}
		penalties := deductions.Penalties.MissingHoursDeduction.
			Add(deductions.Penalties.MissingDaysDeduction).
			Add(deductions.Penalties.UnpaidLeaveDeduction)
		if penalties.IsPositive() {
			lines = append(lines, fmt.Sprintf("  Penalties: %s %s", slip.Currency, penalties.StringFixed(2)))
		}
	}

	lines = append(lines, "",
		fmt.Sprintf("Gross: %s %s", slip.Currency, slip.TotalGrossSalary.StringFixed(2)),
		fmt.Sprintf("Total deductions: %s %s", slip.Currency, slip.TotalDeductions.StringFixed(2)),
		fmt.Sprintf("Net pay: %s %s", slip.Currency, slip.NetPay.StringFixed(2)),
	)
	return lines
}

func buildPayslipPDF(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		lines = []string{"Payslip"}
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n50 800 Td\n")
	for i, line := range lines {
		escaped := pdfEscape(line)
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", escaped))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", escaped))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects)+1)
	offsets = append(offsets, 0)

	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(offsets); i++ {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets), xrefStart))

	return out.Bytes(), nil
}

func pdfEscape(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return replacer.Replace(v)
}
