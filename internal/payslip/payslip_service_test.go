package payslip_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"go-payroll/internal/payrollrun"
	"go-payroll/internal/payslip"
	paysliperrors "go-payroll/internal/payslip/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakePayslipRepo struct {
	inserted      []*payslip.Payslip
	deletedRuns   []string
	paidPeriods   map[uuid.UUID]bool
	byID          *payslip.Payslip
	updated       *payslip.Payslip
	markPaidRunID string
	markPaidAt    time.Time
}

func (f *fakePayslipRepo) WithTx(tx *sql.Tx) payslip.Repository { return f }

func (f *fakePayslipRepo) Insert(ctx context.Context, slip *payslip.Payslip) error {
	f.inserted = append(f.inserted, slip)
	return nil
}

func (f *fakePayslipRepo) DeletePendingByRun(ctx context.Context, runID string) error {
	f.deletedRuns = append(f.deletedRuns, runID)
	return nil
}

func (f *fakePayslipRepo) ExistsPaidForPeriod(ctx context.Context, entityID string, employeeID uuid.UUID, period time.Time) (bool, error) {
	return f.paidPeriods[employeeID], nil
}

func (f *fakePayslipRepo) FindByEmployee(ctx context.Context, entityID, employeeID string) ([]payslip.Payslip, error) {
	if f.byID == nil {
		return nil, nil
	}
	return []payslip.Payslip{*f.byID}, nil
}

func (f *fakePayslipRepo) FindByID(ctx context.Context, entityID, employeeID, id string) (*payslip.Payslip, error) {
	return f.byID, nil
}

func (f *fakePayslipRepo) MarkPaidByRun(ctx context.Context, runID string, paidAt time.Time) error {
	f.markPaidRunID = runID
	f.markPaidAt = paidAt
	return nil
}

func (f *fakePayslipRepo) Update(ctx context.Context, slip *payslip.Payslip) error {
	f.updated = slip
	return nil
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testRun() *payrollrun.PayrollRun {
	return &payrollrun.PayrollRun{
		ID:            uuid.New(),
		EntityID:      uuid.New(),
		RunNumber:     "PR-202601-0001",
		PayrollPeriod: time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
		Currency:      "EUR",
		Status:        payrollrun.StatusApproved,
	}
}

func computation(excluded bool) payrollrun.EmployeeComputation {
	c := payrollrun.EmployeeComputation{
		ID:              uuid.New(),
		EmployeeID:      uuid.New(),
		BaseSalary:      money("3000.00"),
		GrossSalary:     money("3150.00"),
		TotalDeductions: money("450.00"),
		NetPay:          money("2700.00"),
		HasBankAccount:  true,
		Excluded:        excluded,
	}
	if err := c.SetDetail(payrollrun.ComputationDetail{
		Allowances: []payrollrun.PayLine{{Name: "transport", Amount: money("150.00")}},
		Taxes:      []payrollrun.TaxDetail{{Name: "income tax", Rate: money("0.10"), Amount: money("315.00")}},
	}); err != nil {
		panic(err)
	}
	return c
}

func TestAssembler_CreateForRun(t *testing.T) {
	repo := &fakePayslipRepo{paidPeriods: map[uuid.UUID]bool{}}
	assembler := payslip.NewAssembler(repo)
	run := testRun()
	comps := []payrollrun.EmployeeComputation{computation(false), computation(false), computation(true)}

	err := assembler.CreateForRun(context.Background(), nil, run, comps)

	assert.NoError(t, err)
	assert.Equal(t, []string{run.ID.String()}, repo.deletedRuns)
	assert.Len(t, repo.inserted, 2)

	slip := repo.inserted[0]
	assert.Equal(t, run.ID, slip.PayrollRunID)
	assert.Equal(t, payslip.PaymentStatusPending, slip.PaymentStatus)
	assert.Equal(t, payslip.StatusPending, slip.Status)
	assert.Equal(t, "2700.00", slip.NetPay.StringFixed(2))

	var earnings payslip.EarningsDetails
	assert.NoError(t, json.Unmarshal(slip.EarningsDetails, &earnings))
	assert.Equal(t, "3000.00", earnings.BaseSalary)
	assert.Len(t, earnings.Allowances, 1)
}

func TestAssembler_PaidPayslipBlocksReissue(t *testing.T) {
	comp := computation(false)
	repo := &fakePayslipRepo{paidPeriods: map[uuid.UUID]bool{comp.EmployeeID: true}}
	assembler := payslip.NewAssembler(repo)

	err := assembler.CreateForRun(context.Background(), nil, testRun(), []payrollrun.EmployeeComputation{comp})

	assert.ErrorIs(t, err, paysliperrors.ErrPayslipAlreadyFinalized)
	assert.Empty(t, repo.inserted)
}

func TestMarkRunPaid(t *testing.T) {
	repo := &fakePayslipRepo{}
	svc := payslip.NewService(repo)
	runID := uuid.New().String()
	paidAt := time.Date(2026, time.February, 2, 9, 0, 0, 0, time.UTC)

	err := svc.MarkRunPaid(context.Background(), runID, paidAt)

	assert.NoError(t, err)
	assert.Equal(t, runID, repo.markPaidRunID)
	assert.Equal(t, paidAt, repo.markPaidAt)
}

func TestFlagDispute(t *testing.T) {
	t.Run("pending payslip becomes disputed", func(t *testing.T) {
		repo := &fakePayslipRepo{byID: &payslip.Payslip{
			ID:            uuid.New(),
			PaymentStatus: payslip.PaymentStatusPending,
			Status:        payslip.StatusPending,
		}}
		svc := payslip.NewService(repo)

		resp, err := svc.FlagDispute(context.Background(), uuid.New().String(), uuid.New().String(), uuid.New().String(), &payslip.DisputeRequest{Reason: "wrong tax amount"})

		assert.NoError(t, err)
		assert.Equal(t, payslip.StatusDisputed, resp.Status)
		assert.True(t, repo.updated.HasActiveDispute)
	})

	t.Run("paid payslip becomes paid-disputed", func(t *testing.T) {
		repo := &fakePayslipRepo{byID: &payslip.Payslip{
			ID:            uuid.New(),
			PaymentStatus: payslip.PaymentStatusPaid,
			Status:        payslip.StatusPaid,
		}}
		svc := payslip.NewService(repo)

		resp, err := svc.FlagDispute(context.Background(), uuid.New().String(), uuid.New().String(), uuid.New().String(), &payslip.DisputeRequest{Reason: "missing allowance"})

		assert.NoError(t, err)
		assert.Equal(t, payslip.StatusPaidDisputed, resp.Status)
	})

	t.Run("reason is required", func(t *testing.T) {
		svc := payslip.NewService(&fakePayslipRepo{})

		_, err := svc.FlagDispute(context.Background(), uuid.New().String(), uuid.New().String(), uuid.New().String(), &payslip.DisputeRequest{})

		assert.ErrorIs(t, err, paysliperrors.ErrDisputeReasonRequired)
	})

	t.Run("unknown payslip", func(t *testing.T) {
		svc := payslip.NewService(&fakePayslipRepo{})

		_, err := svc.FlagDispute(context.Background(), uuid.New().String(), uuid.New().String(), uuid.New().String(), &payslip.DisputeRequest{Reason: "anything"})

		assert.ErrorIs(t, err, paysliperrors.ErrPayslipNotFound)
	})
}

func TestRenderPDF(t *testing.T) {
	comp := computation(false)
	run := testRun()
	repo := &fakePayslipRepo{paidPeriods: map[uuid.UUID]bool{}}
	assembler := payslip.NewAssembler(repo)
	assert.NoError(t, assembler.CreateForRun(context.Background(), nil, run, []payrollrun.EmployeeComputation{comp}))
	repo.byID = repo.inserted[0]

	svc := payslip.NewService(repo)
	pdf, err := svc.RenderPDF(context.Background(), run.EntityID.String(), comp.EmployeeID.String(), repo.byID.ID.String())

	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-1.4")))
	assert.Contains(t, string(pdf), "Net pay: EUR 2700.00")
}
