package payslip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=payslip_repo.go -destination=mock/payslip_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Insert(ctx context.Context, slip *Payslip) error
	// DeletePendingByRun clears the unpaid payslips of a superseded approval
	// so a re-approved run replaces rather than duplicates them.
	DeletePendingByRun(ctx context.Context, runID string) error
	ExistsPaidForPeriod(ctx context.Context, entityID string, employeeID uuid.UUID, period time.Time) (bool, error)
	FindByEmployee(ctx context.Context, entityID, employeeID string) ([]Payslip, error)
	FindByID(ctx context.Context, entityID, employeeID, id string) (*Payslip, error)
	MarkPaidByRun(ctx context.Context, runID string, paidAt time.Time) error
	Update(ctx context.Context, slip *Payslip) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const insertPayslipQuery = `
INSERT INTO payslips
	(id, payroll_run_id, employee_id, entity_id, payroll_period, currency,
	 earnings_details, deductions_details, total_gross_salary, total_deductions,
	 net_pay, payment_status, status, has_active_dispute, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, now(), now())
`

func (r *repository) Insert(ctx context.Context, slip *Payslip) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, insertPayslipQuery,
			slip.ID, slip.PayrollRunID, slip.EmployeeID, slip.EntityID,
			slip.PayrollPeriod, slip.Currency, slip.EarningsDetails,
			slip.DeductionsDetails, slip.TotalGrossSalary, slip.TotalDeductions,
			slip.NetPay, slip.PaymentStatus, slip.Status,
		)
		return err
	}
	return r.db.WithContext(ctx).Create(slip).Error
}

func (r *repository) DeletePendingByRun(ctx context.Context, runID string) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx,
			`DELETE FROM payslips WHERE payroll_run_id = $1 AND payment_status = 'PENDING'`, runID)
		return err
	}
	return r.db.WithContext(ctx).
		Where("payroll_run_id = ? AND payment_status = ?", runID, PaymentStatusPending).
		Delete(&Payslip{}).Error
}

func (r *repository) ExistsPaidForPeriod(ctx context.Context, entityID string, employeeID uuid.UUID, period time.Time) (bool, error) {
	if r.tx != nil {
		var count int64
		err := r.tx.QueryRowContext(ctx, `
SELECT COUNT(1) FROM payslips
WHERE entity_id = $1 AND employee_id = $2 AND payroll_period = $3 AND payment_status = 'PAID'
`, entityID, employeeID, period).Scan(&count)
		return count > 0, err
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&Payslip{}).
		Where("entity_id = ? AND employee_id = ? AND payroll_period = ? AND payment_status = ?",
			entityID, employeeID, period, PaymentStatusPaid).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByEmployee(ctx context.Context, entityID, employeeID string) ([]Payslip, error) {
	var slips []Payslip
	err := r.db.WithContext(ctx).
		Where("entity_id = ? AND employee_id = ?", entityID, employeeID).
		Order("payroll_period DESC").
		Find(&slips).Error
	return slips, err
}

func (r *repository) FindByID(ctx context.Context, entityID, employeeID, id string) (*Payslip, error) {
	var slip Payslip
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ? AND employee_id = ?", id, entityID, employeeID).
		First(&slip).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slip, nil
}

func (r *repository) MarkPaidByRun(ctx context.Context, runID string, paidAt time.Time) error {
	// Disputed payslips keep their dispute marker when payment lands.
	query := `
UPDATE payslips
SET payment_status = 'PAID',
	status = CASE WHEN has_active_dispute THEN 'paid-disputed' ELSE 'paid' END,
	updated_at = $2
WHERE payroll_run_id = $1 AND payment_status = 'PENDING'
`
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, query, runID, paidAt)
		return err
	}
	return r.db.WithContext(ctx).Exec(query, runID, paidAt).Error
}

func (r *repository) Update(ctx context.Context, slip *Payslip) error {
	return r.db.WithContext(ctx).Save(slip).Error
}
