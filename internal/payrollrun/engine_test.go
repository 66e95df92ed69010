package payrollrun_test

import (
	"context"
	"testing"
	"time"

	"go-payroll/internal/attendance"
	"go-payroll/internal/deduction"
	"go-payroll/internal/employee"
	"go-payroll/internal/leave"
	"go-payroll/internal/payrollconfig"
	payrollconfigerrors "go-payroll/internal/payrollconfig/errors"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/proration"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigService struct {
	profiles map[uuid.UUID]payrollconfig.RateProfile
}

func (f *fakeConfigService) Resolve(ctx context.Context, entityID, employeeID string, asOfDate time.Time) (payrollconfig.RateProfile, error) {
	id := uuid.MustParse(employeeID)
	profile, ok := f.profiles[id]
	if !ok {
		return payrollconfig.RateProfile{}, payrollconfigerrors.ErrSalaryConfigMissing
	}
	return profile, nil
}

func (f *fakeConfigService) EntityConfig(ctx context.Context, entityID string, asOfDate time.Time) (payrollconfig.EntitySnapshot, error) {
	return payrollconfig.EntitySnapshot{}, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, entityID, id string) (*employee.Employee, error) {
	for i := range f.employees {
		if f.employees[i].ID.String() == id {
			return &f.employees[i], nil
		}
	}
	return nil, nil
}

func (f *fakeEmployeeRepo) ListEligibleForPeriod(ctx context.Context, entityID string, periodStart, periodEnd time.Time) ([]employee.Employee, error) {
	return f.employees, nil
}

type fakeLeaveRepo struct {
	leaves map[uuid.UUID][]leave.ApprovedLeave
}

func (f *fakeLeaveRepo) GetApprovedLeaves(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]leave.ApprovedLeave, error) {
	return f.leaves[uuid.MustParse(employeeID)], nil
}

type fakeAttendanceRepo struct {
	summaries map[uuid.UUID]attendance.PeriodSummary
}

func (f *fakeAttendanceRepo) GetPeriodSummary(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) (attendance.PeriodSummary, error) {
	return f.summaries[uuid.MustParse(employeeID)], nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEngineFixture(employees []employee.Employee, profiles map[uuid.UUID]payrollconfig.RateProfile) (*payrollrun.Engine, *fakeLeaveRepo, *fakeAttendanceRepo) {
	calc := proration.NewCalculator(proration.DefaultConfig())
	leaves := &fakeLeaveRepo{leaves: map[uuid.UUID][]leave.ApprovedLeave{}}
	attendanceRepo := &fakeAttendanceRepo{summaries: map[uuid.UUID]attendance.PeriodSummary{}}
	engine := payrollrun.NewEngine(
		&fakeConfigService{profiles: profiles},
		&fakeEmployeeRepo{employees: employees},
		leaves,
		attendanceRepo,
		calc,
		deduction.NewAssembler(calc),
	)
	return engine, leaves, attendanceRepo
}

func flatTaxProfile(employeeID uuid.UUID, baseSalary string) payrollconfig.RateProfile {
	return payrollconfig.RateProfile{
		EmployeeID: employeeID,
		BaseSalary: money(baseSalary),
		TaxRules: []payrollconfig.TaxRule{
			{Name: "income tax", Rate: money("0.10")},
		},
	}
}

func TestComputeRunNetPayIdentity(t *testing.T) {
	empA := uuid.New()
	empB := uuid.New()
	bank := "DE89370400440532013000"
	employees := []employee.Employee{
		{ID: empA, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank},
		{ID: empB, HireDate: date(2021, 6, 1), Status: employee.StatusActive, BankAccount: &bank},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		empA: flatTaxProfile(empA, "3000"),
		empB: flatTaxProfile(empB, "2000"),
	}
	engine, _, _ := newEngineFixture(employees, profiles)

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 1, 31))
	require.NoError(t, err)
	require.Len(t, result.Computations, 2)
	assert.Equal(t, 2, result.EmployeeCount)

	total := decimal.Zero
	for _, c := range result.Computations {
		assert.True(t, c.NetPay.Equal(c.GrossSalary.Sub(c.TotalDeductions)),
			"net pay must equal gross minus deductions")
		total = total.Add(c.NetPay)
	}
	// 3000 - 300 + 2000 - 200
	assert.Equal(t, "4500.00", result.TotalNetPay.StringFixed(2))
	assert.True(t, total.Equal(result.TotalNetPay))
}

func TestComputeRunIsDeterministic(t *testing.T) {
	bank := "GB29NWBK60161331926819"
	var employees []employee.Employee
	profiles := map[uuid.UUID]payrollconfig.RateProfile{}
	for i := 0; i < 5; i++ {
		id := uuid.New()
		employees = append(employees, employee.Employee{
			ID: id, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank,
		})
		profiles[id] = flatTaxProfile(id, "2750.50")
	}
	engine, _, _ := newEngineFixture(employees, profiles)

	first, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 3, 31))
	require.NoError(t, err)
	second, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 3, 31))
	require.NoError(t, err)

	require.Equal(t, len(first.Computations), len(second.Computations))
	assert.True(t, first.TotalNetPay.Equal(second.TotalNetPay))
	for i := range first.Computations {
		a, b := first.Computations[i], second.Computations[i]
		assert.Equal(t, a.EmployeeID, b.EmployeeID)
		assert.True(t, a.GrossSalary.Equal(b.GrossSalary))
		assert.True(t, a.TotalDeductions.Equal(b.TotalDeductions))
		assert.True(t, a.NetPay.Equal(b.NetPay))
	}
}

func TestComputeRunMissingConfigIsIsolated(t *testing.T) {
	configured := uuid.New()
	unconfigured := uuid.New()
	bank := "FR1420041010050500013M02606"
	employees := []employee.Employee{
		{ID: configured, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank},
		{ID: unconfigured, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		configured: flatTaxProfile(configured, "3000"),
	}
	engine, _, _ := newEngineFixture(employees, profiles)

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 1, 31))
	require.NoError(t, err)
	require.Len(t, result.Computations, 2)
	assert.Equal(t, 1, result.EmployeeCount)
	assert.Equal(t, 1, result.ExcludedCount)
	assert.Equal(t, "2700.00", result.TotalNetPay.StringFixed(2))

	for _, c := range result.Computations {
		if c.EmployeeID == unconfigured {
			assert.True(t, c.Excluded)
			require.NotNil(t, c.ExclusionReason)
		} else {
			assert.False(t, c.Excluded)
		}
	}
}

func TestComputeRunProratesMidMonthHire(t *testing.T) {
	hired := uuid.New()
	bank := "NL91ABNA0417164300"
	employees := []employee.Employee{
		// Hired April 16th: 15 of 30 days worked.
		{ID: hired, HireDate: date(2026, 4, 16), Status: employee.StatusActive, BankAccount: &bank},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		hired: {EmployeeID: hired, BaseSalary: money("3000")},
	}
	engine, _, _ := newEngineFixture(employees, profiles)

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 4, 30))
	require.NoError(t, err)
	require.Len(t, result.Computations, 1)

	c := result.Computations[0]
	require.NotNil(t, c.ProratedSalary)
	assert.Equal(t, "1500.00", c.ProratedSalary.StringFixed(2))
	assert.Equal(t, "3000.00", c.BaseSalary.StringFixed(2))
	assert.Equal(t, "1500.00", c.GrossSalary.StringFixed(2))
}

func TestComputeRunUnpaidLeaveDeduction(t *testing.T) {
	emp := uuid.New()
	bank := "ES9121000418450200051332"
	employees := []employee.Employee{
		{ID: emp, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		emp: {EmployeeID: emp, BaseSalary: money("3000")}, // daily rate 100
	}
	engine, leaves, _ := newEngineFixture(employees, profiles)
	leaves.leaves[emp] = []leave.ApprovedLeave{
		{EmployeeID: emp, LeaveType: "unpaid", Paid: false, StartDate: date(2026, 1, 12), EndDate: date(2026, 1, 13)},
	}

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 1, 31))
	require.NoError(t, err)
	require.Len(t, result.Computations, 1)

	c := result.Computations[0]
	assert.Equal(t, "200.00", c.TotalDeductions.StringFixed(2))
	assert.Equal(t, "2800.00", c.NetPay.StringFixed(2))

	detail, err := c.Detail()
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Penalties.UnpaidLeaveDays)
	assert.Equal(t, "200", detail.Penalties.UnpaidLeaveDeduction.String())
}

func TestComputeRunFlagsMissingBankAccount(t *testing.T) {
	emp := uuid.New()
	employees := []employee.Employee{
		{ID: emp, HireDate: date(2020, 1, 1), Status: employee.StatusActive},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		emp: flatTaxProfile(emp, "3000"),
	}
	engine, _, _ := newEngineFixture(employees, profiles)

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 1, 31))
	require.NoError(t, err)
	require.Len(t, result.Computations, 1)

	c := result.Computations[0]
	assert.False(t, c.HasBankAccount)
	// net pay = gross - taxes
	assert.Equal(t, "2700.00", c.NetPay.StringFixed(2))
}

func TestComputeRunAttendancePenalties(t *testing.T) {
	emp := uuid.New()
	bank := "IT60X0542811101000000123456"
	employees := []employee.Employee{
		{ID: emp, HireDate: date(2020, 1, 1), Status: employee.StatusActive, BankAccount: &bank},
	}
	profiles := map[uuid.UUID]payrollconfig.RateProfile{
		emp: {EmployeeID: emp, BaseSalary: money("2400")}, // daily 80, hourly 10
	}
	engine, _, attendanceRepo := newEngineFixture(employees, profiles)
	attendanceRepo.summaries[emp] = attendance.PeriodSummary{
		EmployeeID:   emp.String(),
		MissingHours: 4,
		MissingDays:  1,
	}

	result, err := engine.ComputeRun(context.Background(), uuid.NewString(), date(2026, 1, 31))
	require.NoError(t, err)
	c := result.Computations[0]

	// 4 * 10 + 1 * 80
	assert.Equal(t, "120.00", c.TotalDeductions.StringFixed(2))
	assert.Equal(t, "2280.00", c.NetPay.StringFixed(2))
}
