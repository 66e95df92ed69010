package deduction

import (
	"github.com/shopspring/decimal"

	"go-payroll/internal/payrollconfig"
	"go-payroll/internal/proration"
)

// Input is everything the assembler needs for one employee. Missing or zero
// components are legitimate and contribute nothing; they are never errors.
type Input struct {
	BaseSalary       decimal.Decimal
	GrossTaxableBase decimal.Decimal
	TaxRules         []payrollconfig.TaxRule
	InsurancePlans   []payrollconfig.InsurancePlan
	MissingHours     float64
	MissingDays      int
	UnpaidLeaveDays  int
}

type TaxLine struct {
	Name   string
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

type InsuranceLine struct {
	Name                 string
	EmployeeContribution decimal.Decimal
	EmployerContribution decimal.Decimal
}

// Breakdown is the itemized deduction result. EmployerInsuranceTotal is
// informational (total coverage value); it is never part of Total.
type Breakdown struct {
	Taxes                  []TaxLine
	Insurances             []InsuranceLine
	MissingHoursDeduction  decimal.Decimal
	MissingDaysDeduction   decimal.Decimal
	UnpaidLeaveDeduction   decimal.Decimal
	EmployerInsuranceTotal decimal.Decimal
	Total                  decimal.Decimal
}

type Assembler struct {
	calc *proration.Calculator
}

func NewAssembler(calc *proration.Calculator) *Assembler {
	return &Assembler{calc: calc}
}

// Assemble combines taxes, employee insurance contributions, attendance
// penalties and unpaid leave into a single deduction total.
func (a *Assembler) Assemble(in Input) Breakdown {
	out := Breakdown{
		MissingHoursDeduction:  decimal.Zero,
		MissingDaysDeduction:   decimal.Zero,
		UnpaidLeaveDeduction:   decimal.Zero,
		EmployerInsuranceTotal: decimal.Zero,
		Total:                  decimal.Zero,
	}

	for _, rule := range in.TaxRules {
		amount := TaxAmount(rule, in.GrossTaxableBase)
		if amount.IsZero() && !rule.IsProgressive {
			// keep zero flat lines out of the payslip detail
			continue
		}
		out.Taxes = append(out.Taxes, TaxLine{Name: rule.Name, Rate: rule.Rate, Amount: amount})
		out.Total = out.Total.Add(amount)
	}

	for _, plan := range in.InsurancePlans {
		employee := plan.EmployeeContribution(in.GrossTaxableBase)
		employer := plan.EmployerContribution(in.GrossTaxableBase)
		out.Insurances = append(out.Insurances, InsuranceLine{
			Name:                 plan.Name,
			EmployeeContribution: employee,
			EmployerContribution: employer,
		})
		out.Total = out.Total.Add(employee)
		out.EmployerInsuranceTotal = out.EmployerInsuranceTotal.Add(employer)
	}

	daily := a.calc.DailyRate(in.BaseSalary)
	hourly := a.calc.HourlyRate(in.BaseSalary)

	if in.MissingHours > 0 {
		out.MissingHoursDeduction = hourly.Mul(decimal.NewFromFloat(in.MissingHours)).Round(2)
		out.Total = out.Total.Add(out.MissingHoursDeduction)
	}
	if in.MissingDays > 0 {
		out.MissingDaysDeduction = daily.Mul(decimal.NewFromInt(int64(in.MissingDays))).Round(2)
		out.Total = out.Total.Add(out.MissingDaysDeduction)
	}
	if in.UnpaidLeaveDays > 0 {
		out.UnpaidLeaveDeduction = daily.Mul(decimal.NewFromInt(int64(in.UnpaidLeaveDays))).Round(2)
		out.Total = out.Total.Add(out.UnpaidLeaveDeduction)
	}

	return out
}

// TaxAmount computes the tax for one rule against a taxable base. Progressive
// rules tax each bracket marginally; flat rules apply the rate to the whole
// base. The rule's exempt amount comes off the base first.
func TaxAmount(rule payrollconfig.TaxRule, taxableBase decimal.Decimal) decimal.Decimal {
	base := taxableBase.Sub(rule.ExemptAmount)
	if base.IsNegative() {
		return decimal.Zero
	}

	if !rule.IsProgressive {
		return base.Mul(rule.Rate).Round(2)
	}

	total := decimal.Zero
	for _, b := range rule.Brackets {
		if base.LessThanOrEqual(b.MinAmount) {
			continue
		}
		upper := base
		if b.MaxAmount != nil && upper.GreaterThan(*b.MaxAmount) {
			upper = *b.MaxAmount
		}
		portion := upper.Sub(b.MinAmount)
		if portion.IsPositive() {
			total = total.Add(portion.Mul(b.Rate))
		}
	}
	return total.Round(2)
}
