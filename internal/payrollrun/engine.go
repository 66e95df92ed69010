package payrollrun

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-payroll/internal/attendance"
	"go-payroll/internal/deduction"
	"go-payroll/internal/employee"
	"go-payroll/internal/leave"
	"go-payroll/internal/payrollconfig"
	payrollconfigerrors "go-payroll/internal/payrollconfig/errors"
	"go-payroll/internal/proration"
	"go-payroll/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerCount = 8

// BatchResult is the in-memory outcome of one generation pass, before any row
// is persisted. A cancelled or failed pass discards it wholesale.
type BatchResult struct {
	Computations  []EmployeeComputation
	EmployeeCount int
	TotalNetPay   decimal.Decimal
	ExcludedCount int
}

// Engine computes every eligible employee's gross-to-net for one period.
// Employees are independent, so the work fans out over a bounded pool; result
// order is fixed by employee id so two passes over the same snapshot produce
// the same rows.
type Engine struct {
	configs    payrollconfig.Service
	employees  employee.Repository
	leaves     leave.Repository
	attendance attendance.Repository
	prorator   *proration.Calculator
	deductions *deduction.Assembler
	workers    int
	logger     *zap.Logger
}

func NewEngine(
	configs payrollconfig.Service,
	employees employee.Repository,
	leaves leave.Repository,
	attendanceRepo attendance.Repository,
	prorator *proration.Calculator,
	deductions *deduction.Assembler,
	logger ...*zap.Logger,
) *Engine {
	return NewEngineWithWorkers(configs, employees, leaves, attendanceRepo, prorator, deductions, defaultWorkerCount, logger...)
}

// NewEngineWithWorkers sizes the computation pool explicitly, for deployments
// that tune it via PAYROLL_WORKERS.
func NewEngineWithWorkers(
	configs payrollconfig.Service,
	employees employee.Repository,
	leaves leave.Repository,
	attendanceRepo attendance.Repository,
	prorator *proration.Calculator,
	deductions *deduction.Assembler,
	workers int,
	logger ...*zap.Logger,
) *Engine {
	l := zap.L().Named("payrollrun.engine")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollrun.engine")
	}
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &Engine{
		configs:    configs,
		employees:  employees,
		leaves:     leaves,
		attendance: attendanceRepo,
		prorator:   prorator,
		deductions: deductions,
		workers:    workers,
		logger:     l,
	}
}

// ComputeRun builds the full computation set for one (entity, period) pair.
// A single employee with missing configuration is excluded and annotated, not
// fatal; any other failure aborts the whole pass.
func (e *Engine) ComputeRun(ctx context.Context, entityID string, periodEnd time.Time) (BatchResult, error) {
	timer := time.Now()
	periodStart := time.Date(periodEnd.Year(), periodEnd.Month(), 1, 0, 0, 0, 0, periodEnd.Location())

	employees, err := e.employees.ListEligibleForPeriod(ctx, entityID, periodStart, periodEnd)
	if err != nil {
		return BatchResult{}, err
	}

	// Each goroutine writes only its own slot, so no lock is needed.
	comps := make([]EmployeeComputation, len(employees))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range employees {
		i := i
		g.Go(func() error {
			comp, err := e.computeEmployee(gctx, entityID, employees[i], periodStart, periodEnd)
			if err != nil {
				return err
			}
			comps[i] = comp
			metrics.EmployeeComputations.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}

	sort.Slice(comps, func(i, j int) bool {
		return comps[i].EmployeeID.String() < comps[j].EmployeeID.String()
	})

	result := BatchResult{Computations: comps, TotalNetPay: decimal.Zero}
	for i := range comps {
		if comps[i].Excluded {
			result.ExcludedCount++
			continue
		}
		result.EmployeeCount++
		result.TotalNetPay = result.TotalNetPay.Add(comps[i].NetPay)
	}

	metrics.GenerationDuration.Observe(time.Since(timer).Seconds())
	e.logger.Info("batch computation finished",
		zap.String("entity_id", entityID),
		zap.Time("period", periodEnd),
		zap.Int("employees", result.EmployeeCount),
		zap.Int("excluded", result.ExcludedCount),
		zap.Duration("took", time.Since(timer)),
	)
	return result, nil
}

func (e *Engine) computeEmployee(ctx context.Context, entityID string, emp employee.Employee, periodStart, periodEnd time.Time) (EmployeeComputation, error) {
	comp := EmployeeComputation{
		ID:             uuid.New(),
		EmployeeID:     emp.ID,
		HasBankAccount: emp.HasBankAccount(),
	}

	profile, err := e.configs.Resolve(ctx, entityID, emp.ID.String(), periodEnd)
	if err != nil {
		if errors.Is(err, payrollconfigerrors.ErrSalaryConfigMissing) {
			reason := "no active salary configuration for this period"
			comp.Excluded = true
			comp.ExclusionReason = &reason
			comp.BaseSalary = decimal.Zero
			comp.GrossSalary = decimal.Zero
			comp.TotalDeductions = decimal.Zero
			comp.NetPay = decimal.Zero
			return comp, nil
		}
		return comp, err
	}
	comp.BaseSalary = profile.BaseSalary

	// Proration applies only when the employment window does not cover the
	// whole period.
	salary := profile.BaseSalary
	workStart := emp.HireDate
	if workStart.Before(periodStart) {
		workStart = periodStart
	}
	workEnd := periodEnd
	if emp.TerminationDate != nil && emp.TerminationDate.Before(periodEnd) {
		workEnd = *emp.TerminationDate
	}
	prorated, err := e.prorator.Prorate(profile.BaseSalary, workStart, workEnd, periodEnd)
	if err != nil {
		return comp, err
	}
	if prorated.Applied {
		salary = prorated.Amount
		comp.ProratedSalary = &prorated.Amount
	}

	detail := ComputationDetail{}
	gross := salary
	for _, a := range profile.Allowances {
		line := PayLine{Name: a.Name, Amount: a.Amount}
		switch a.Kind {
		case payrollconfig.AllowanceBonus:
			detail.Bonuses = append(detail.Bonuses, line)
		case payrollconfig.AllowanceRefund:
			detail.Refunds = append(detail.Refunds, line)
		default:
			detail.Allowances = append(detail.Allowances, line)
		}
		gross = gross.Add(a.Amount)
	}
	comp.GrossSalary = gross

	leaves, err := e.leaves.GetApprovedLeaves(ctx, emp.ID.String(), periodStart, periodEnd)
	if err != nil {
		return comp, err
	}
	unpaidDays := leave.UnpaidDaysWithin(leaves, periodStart, periodEnd)

	summary, err := e.attendance.GetPeriodSummary(ctx, emp.ID.String(), periodStart, periodEnd)
	if err != nil {
		return comp, err
	}

	breakdown := e.deductions.Assemble(deduction.Input{
		BaseSalary:       profile.BaseSalary,
		GrossTaxableBase: profile.TaxableEarnings(salary),
		TaxRules:         profile.TaxRules,
		InsurancePlans:   profile.InsurancePlans,
		MissingHours:     summary.MissingHours,
		MissingDays:      summary.MissingDays,
		UnpaidLeaveDays:  unpaidDays,
	})

	for _, t := range breakdown.Taxes {
		detail.Taxes = append(detail.Taxes, TaxDetail{Name: t.Name, Rate: t.Rate, Amount: t.Amount})
	}
	for _, ins := range breakdown.Insurances {
		detail.Insurances = append(detail.Insurances, InsuranceDetail{
			Name:                 ins.Name,
			EmployeeContribution: ins.EmployeeContribution,
			EmployerContribution: ins.EmployerContribution,
		})
	}
	detail.Penalties = PenaltyDetail{
		MissingHours:          summary.MissingHours,
		MissingDays:           summary.MissingDays,
		UnpaidLeaveDays:       unpaidDays,
		MissingHoursDeduction: breakdown.MissingHoursDeduction,
		MissingDaysDeduction:  breakdown.MissingDaysDeduction,
		UnpaidLeaveDeduction:  breakdown.UnpaidLeaveDeduction,
	}

	comp.TotalDeductions = breakdown.Total
	comp.NetPay = gross.Sub(breakdown.Total)
	if err := comp.SetDetail(detail); err != nil {
		return comp, err
	}
	return comp, nil
}
