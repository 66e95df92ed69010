package deduction_test

import (
	"testing"

	"go-payroll/internal/deduction"
	"go-payroll/internal/payrollconfig"
	"go-payroll/internal/proration"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newAssembler() *deduction.Assembler {
	return deduction.NewAssembler(proration.NewCalculator(proration.DefaultConfig()))
}

func TestAssemble_FlatTax(t *testing.T) {
	a := newAssembler()

	out := a.Assemble(deduction.Input{
		BaseSalary:       dec("3000"),
		GrossTaxableBase: dec("3000"),
		TaxRules: []payrollconfig.TaxRule{
			{Name: "income tax", Rate: dec("0.10")},
		},
	})

	assert.Len(t, out.Taxes, 1)
	assert.Equal(t, "300.00", out.Taxes[0].Amount.StringFixed(2))
	assert.Equal(t, "300.00", out.Total.StringFixed(2))
}

func TestAssemble_FlatTaxWithExemptAmount(t *testing.T) {
	a := newAssembler()

	out := a.Assemble(deduction.Input{
		BaseSalary:       dec("3000"),
		GrossTaxableBase: dec("3000"),
		TaxRules: []payrollconfig.TaxRule{
			{Name: "income tax", Rate: dec("0.10"), ExemptAmount: dec("1000")},
		},
	})

	assert.Equal(t, "200.00", out.Total.StringFixed(2))
}

func TestAssemble_ExemptAboveBaseYieldsNothing(t *testing.T) {
	a := newAssembler()

	out := a.Assemble(deduction.Input{
		BaseSalary:       dec("800"),
		GrossTaxableBase: dec("800"),
		TaxRules: []payrollconfig.TaxRule{
			{Name: "income tax", Rate: dec("0.10"), ExemptAmount: dec("1000")},
		},
	})

	assert.Empty(t, out.Taxes)
	assert.True(t, out.Total.IsZero())
}

func TestTaxAmount_ProgressiveBrackets(t *testing.T) {
	mid := dec("1000")
	top := dec("3000")
	rule := payrollconfig.TaxRule{
		Name:          "progressive income tax",
		IsProgressive: true,
		Brackets: []payrollconfig.TaxBracket{
			{MinAmount: dec("0"), MaxAmount: &mid, Rate: dec("0")},
			{MinAmount: dec("1000"), MaxAmount: &top, Rate: dec("0.10")},
			{MinAmount: dec("3000"), MaxAmount: nil, Rate: dec("0.20")},
		},
	}

	// 2000 in the 10% bracket, 500 in the open-ended 20% bracket.
	got := deduction.TaxAmount(rule, dec("3500"))
	assert.Equal(t, "300.00", got.StringFixed(2))

	// Entirely inside the zero bracket.
	assert.Equal(t, "0.00", deduction.TaxAmount(rule, dec("800")).StringFixed(2))

	// Exactly on a bracket boundary taxes the lower brackets only.
	assert.Equal(t, "200.00", deduction.TaxAmount(rule, dec("3000")).StringFixed(2))
}

func TestAssemble_InsuranceSplitsEmployeeAndEmployer(t *testing.T) {
	a := newAssembler()

	out := a.Assemble(deduction.Input{
		BaseSalary:       dec("2000"),
		GrossTaxableBase: dec("2000"),
		InsurancePlans: []payrollconfig.InsurancePlan{
			{Name: "health", EmployeeRate: dec("0.05"), EmployerRate: dec("0.03")},
			{Name: "accident", FixedEmployeeAmount: dec("25"), FixedEmployerAmount: dec("75")},
		},
	})

	assert.Len(t, out.Insurances, 2)
	assert.Equal(t, "100.00", out.Insurances[0].EmployeeContribution.StringFixed(2))
	assert.Equal(t, "60.00", out.Insurances[0].EmployerContribution.StringFixed(2))
	assert.Equal(t, "25.00", out.Insurances[1].EmployeeContribution.StringFixed(2))

	// Employer share is informational only and never deducted.
	assert.Equal(t, "125.00", out.Total.StringFixed(2))
	assert.Equal(t, "135.00", out.EmployerInsuranceTotal.StringFixed(2))
}

func TestAssemble_AttendanceAndLeavePenalties(t *testing.T) {
	a := newAssembler()

	// 2400 / 30 = 80 daily, / 8 = 10 hourly.
	out := a.Assemble(deduction.Input{
		BaseSalary:       dec("2400"),
		GrossTaxableBase: dec("2400"),
		MissingHours:     4,
		MissingDays:      2,
		UnpaidLeaveDays:  1,
	})

	assert.Equal(t, "40.00", out.MissingHoursDeduction.StringFixed(2))
	assert.Equal(t, "160.00", out.MissingDaysDeduction.StringFixed(2))
	assert.Equal(t, "80.00", out.UnpaidLeaveDeduction.StringFixed(2))
	assert.Equal(t, "280.00", out.Total.StringFixed(2))
}

func TestAssemble_EmptyInputIsZero(t *testing.T) {
	a := newAssembler()

	out := a.Assemble(deduction.Input{BaseSalary: dec("2000"), GrossTaxableBase: dec("2000")})

	assert.Empty(t, out.Taxes)
	assert.Empty(t, out.Insurances)
	assert.True(t, out.Total.IsZero())
}
