package payslip

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go-payroll/internal/payrollrun"
	paysliperrors "go-payroll/internal/payslip/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EarningsDetails is the earnings side of the stored snapshot.
type EarningsDetails struct {
	BaseSalary     string               `json:"base_salary"`
	ProratedSalary *string              `json:"prorated_salary,omitempty"`
	Allowances     []payrollrun.PayLine `json:"allowances"`
	Bonuses        []payrollrun.PayLine `json:"bonuses"`
	Refunds        []payrollrun.PayLine `json:"refunds"`
}

// DeductionsDetails is the deductions side of the stored snapshot.
type DeductionsDetails struct {
	Taxes      []payrollrun.TaxDetail       `json:"taxes"`
	Insurances []payrollrun.InsuranceDetail `json:"insurances"`
	Penalties  payrollrun.PenaltyDetail     `json:"penalties"`
}

//go:generate mockgen -source=payslip_service.go -destination=mock/payslip_service_mock.go -package=mock
type Service interface {
	GetByEmployee(ctx context.Context, entityID, employeeID string) ([]PayslipResponse, error)
	GetByID(ctx context.Context, entityID, employeeID, payslipID string) (*PayslipResponse, error)
	// MarkRunPaid flips every pending payslip of a run to PAID. Driven by the
	// payment-confirmed event, not by an API call.
	MarkRunPaid(ctx context.Context, runID string, paidAt time.Time) error
	FlagDispute(ctx context.Context, entityID, employeeID, payslipID string, req *DisputeRequest) (*PayslipResponse, error)
	RenderPDF(ctx context.Context, entityID, employeeID, payslipID string) ([]byte, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payslip.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payslip.service")
	}
	return &service{repo: repo, logger: l}
}

// Assembler turns an approved run's computations into payslip rows. It runs
// inside the approval transaction.
type Assembler struct {
	repo   Repository
	logger *zap.Logger
}

func NewAssembler(repo Repository, logger ...*zap.Logger) *Assembler {
	l := zap.L().Named("payslip.assembler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payslip.assembler")
	}
	return &Assembler{repo: repo, logger: l}
}

func (a *Assembler) CreateForRun(ctx context.Context, tx *sql.Tx, run *payrollrun.PayrollRun, comps []payrollrun.EmployeeComputation) error {
	qtx := a.repo.WithTx(tx)

	// A previous approval round of the same run may have left pending slips.
	if err := qtx.DeletePendingByRun(ctx, run.ID.String()); err != nil {
		return err
	}

	created := 0
	for i := range comps {
		c := &comps[i]
		if c.Excluded {
			continue
		}

		paid, err := qtx.ExistsPaidForPeriod(ctx, run.EntityID.String(), c.EmployeeID, run.PayrollPeriod)
		if err != nil {
			return err
		}
		if paid {
			return paysliperrors.ErrPayslipAlreadyFinalized
		}

		slip, err := buildPayslip(run, c)
		if err != nil {
			return err
		}
		if err := qtx.Insert(ctx, slip); err != nil {
			return err
		}
		created++
	}

	a.logger.Info("payslips assembled",
		zap.String("payroll_run_id", run.ID.String()),
		zap.Int("created", created),
	)
	return nil
}

func buildPayslip(run *payrollrun.PayrollRun, c *payrollrun.EmployeeComputation) (*Payslip, error) {
	detail, err := c.Detail()
	if err != nil {
		return nil, err
	}

	earnings := EarningsDetails{
		BaseSalary: c.BaseSalary.StringFixed(2),
		Allowances: detail.Allowances,
		Bonuses:    detail.Bonuses,
		Refunds:    detail.Refunds,
	}
	if c.ProratedSalary != nil {
		s := c.ProratedSalary.StringFixed(2)
		earnings.ProratedSalary = &s
	}
	earningsRaw, err := json.Marshal(earnings)
	if err != nil {
		return nil, err
	}

	deductionsRaw, err := json.Marshal(DeductionsDetails{
		Taxes:      detail.Taxes,
		Insurances: detail.Insurances,
		Penalties:  detail.Penalties,
	})
	if err != nil {
		return nil, err
	}

	return &Payslip{
		ID:                uuid.New(),
		PayrollRunID:      run.ID,
		EmployeeID:        c.EmployeeID,
		EntityID:          run.EntityID,
		PayrollPeriod:     run.PayrollPeriod,
		Currency:          run.Currency,
		EarningsDetails:   earningsRaw,
		DeductionsDetails: deductionsRaw,
		TotalGrossSalary:  c.GrossSalary,
		TotalDeductions:   c.TotalDeductions,
		NetPay:            c.NetPay,
		PaymentStatus:     PaymentStatusPending,
		Status:            StatusPending,
	}, nil
}

func (s *service) GetByEmployee(ctx context.Context, entityID, employeeID string) ([]PayslipResponse, error) {
	slips, err := s.repo.FindByEmployee(ctx, entityID, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(slips)
}

func (s *service) GetByID(ctx context.Context, entityID, employeeID, payslipID string) (*PayslipResponse, error) {
	slip, err := s.repo.FindByID(ctx, entityID, employeeID, payslipID)
	if err != nil {
		return nil, err
	}
	if slip == nil {
		return nil, paysliperrors.ErrPayslipNotFound
	}
	resp, err := mapToResponse(slip)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) MarkRunPaid(ctx context.Context, runID string, paidAt time.Time) error {
	if err := s.repo.MarkPaidByRun(ctx, runID, paidAt); err != nil {
		return err
	}
	s.logger.Info("payslips marked paid",
		zap.String("payroll_run_id", runID),
		zap.Time("paid_at", paidAt),
	)
	return nil
}

func (s *service) FlagDispute(ctx context.Context, entityID, employeeID, payslipID string, req *DisputeRequest) (*PayslipResponse, error) {
	if req.Reason == "" {
		return nil, paysliperrors.ErrDisputeReasonRequired
	}
	slip, err := s.repo.FindByID(ctx, entityID, employeeID, payslipID)
	if err != nil {
		return nil, err
	}
	if slip == nil {
		return nil, paysliperrors.ErrPayslipNotFound
	}

	slip.HasActiveDispute = true
	if slip.PaymentStatus == PaymentStatusPaid {
		slip.Status = StatusPaidDisputed
	} else {
		slip.Status = StatusDisputed
	}
	if req.DisputeID != "" {
		if disputeUUID, err := uuid.Parse(req.DisputeID); err == nil {
			slip.LatestDisputeID = &disputeUUID
		}
	}
	if err := s.repo.Update(ctx, slip); err != nil {
		return nil, err
	}

	resp, err := mapToResponse(slip)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
