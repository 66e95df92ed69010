package payrollconfig_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go-payroll/internal/payrollconfig"
	payrollconfigerrors "go-payroll/internal/payrollconfig/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeConfigRepo struct {
	salaryFn     func(ctx context.Context, entityID, employeeID string, asOf time.Time) (*payrollconfig.SalaryRecord, error)
	allowancesFn func(ctx context.Context, entityID, employeeID string, asOf time.Time) ([]payrollconfig.AllowanceDef, error)

	taxRuleCalls atomic.Int32
	planCalls    atomic.Int32
}

func (f *fakeConfigRepo) FindActiveSalary(ctx context.Context, entityID, employeeID string, asOf time.Time) (*payrollconfig.SalaryRecord, error) {
	if f.salaryFn != nil {
		return f.salaryFn(ctx, entityID, employeeID, asOf)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConfigRepo) FindActiveAllowances(ctx context.Context, entityID, employeeID string, asOf time.Time) ([]payrollconfig.AllowanceDef, error) {
	if f.allowancesFn != nil {
		return f.allowancesFn(ctx, entityID, employeeID, asOf)
	}
	return nil, nil
}

func (f *fakeConfigRepo) FindActiveTaxRules(ctx context.Context, entityID string, asOf time.Time) ([]payrollconfig.TaxRule, error) {
	f.taxRuleCalls.Add(1)
	return []payrollconfig.TaxRule{{Name: "income tax", Rate: decimal.NewFromFloat(0.1)}}, nil
}

func (f *fakeConfigRepo) FindActiveInsurancePlans(ctx context.Context, entityID string, asOf time.Time) ([]payrollconfig.InsurancePlan, error) {
	f.planCalls.Add(1)
	// Slow query so concurrent resolves actually overlap.
	time.Sleep(10 * time.Millisecond)
	return []payrollconfig.InsurancePlan{{Name: "health", EmployeeRate: decimal.NewFromFloat(0.05)}}, nil
}

func TestResolve_ReturnsEffectiveProfile(t *testing.T) {
	entityID := uuid.New().String()
	employeeID := uuid.New()
	asOf := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	repo := &fakeConfigRepo{
		salaryFn: func(ctx context.Context, eid, empID string, d time.Time) (*payrollconfig.SalaryRecord, error) {
			assert.Equal(t, entityID, eid)
			assert.Equal(t, employeeID.String(), empID)
			return &payrollconfig.SalaryRecord{BaseSalary: decimal.NewFromInt(3000)}, nil
		},
		allowancesFn: func(ctx context.Context, eid, empID string, d time.Time) ([]payrollconfig.AllowanceDef, error) {
			return []payrollconfig.AllowanceDef{{Name: "transport", Kind: payrollconfig.AllowanceRecurring, Amount: decimal.NewFromInt(150)}}, nil
		},
	}
	svc := payrollconfig.NewService(repo)

	profile, err := svc.Resolve(context.Background(), entityID, employeeID.String(), asOf)

	assert.NoError(t, err)
	assert.Equal(t, employeeID, profile.EmployeeID)
	assert.Equal(t, "3000", profile.BaseSalary.String())
	assert.Len(t, profile.Allowances, 1)
	assert.Len(t, profile.TaxRules, 1)
	assert.Len(t, profile.InsurancePlans, 1)
}

func TestResolve_MissingSalaryConfig(t *testing.T) {
	svc := payrollconfig.NewService(&fakeConfigRepo{})

	_, err := svc.Resolve(context.Background(), uuid.New().String(), uuid.New().String(), time.Now())

	assert.ErrorIs(t, err, payrollconfigerrors.ErrSalaryConfigMissing)
}

func TestResolve_RejectsMalformedIDs(t *testing.T) {
	svc := payrollconfig.NewService(&fakeConfigRepo{})

	_, err := svc.Resolve(context.Background(), "not-a-uuid", uuid.New().String(), time.Now())
	assert.ErrorIs(t, err, payrollconfigerrors.ErrInvalidEntityID)

	_, err = svc.Resolve(context.Background(), uuid.New().String(), "not-a-uuid", time.Now())
	assert.ErrorIs(t, err, payrollconfigerrors.ErrInvalidEmployeeID)
}

func TestEntityConfig_CollapsesConcurrentLoads(t *testing.T) {
	repo := &fakeConfigRepo{}
	svc := payrollconfig.NewService(repo)

	entityID := uuid.New().String()
	asOf := time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := svc.EntityConfig(context.Background(), entityID, asOf)
			assert.NoError(t, err)
			assert.Len(t, snap.TaxRules, 1)
		}()
	}
	wg.Wait()

	assert.Less(t, int(repo.taxRuleCalls.Load()), 16)
}
