package payrollrun

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-payroll/internal/irregularity"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=run_repo.go -destination=mock/run_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, run *PayrollRun) error
	Update(ctx context.Context, run *PayrollRun) error
	FindByID(ctx context.Context, entityID, id string) (*PayrollRun, error)
	// FindByIDForUpdate locks the run row for the duration of the wrapping
	// transaction. Only usable through WithTx.
	FindByIDForUpdate(ctx context.Context, entityID, id string) (*PayrollRun, error)
	FindAll(ctx context.Context, entityID, status string, limit, offset int) ([]PayrollRun, int64, error)
	ExistsOpenForPeriod(ctx context.Context, entityID string, period time.Time, excludeRunID *string) (bool, error)
	InsertComputations(ctx context.Context, comps []EmployeeComputation) error
	// ReplaceComputations deletes a run's rows and writes the new set in one
	// shot. Regeneration is replace-not-append.
	ReplaceComputations(ctx context.Context, runID string, comps []EmployeeComputation) error
	ListComputations(ctx context.Context, runID string) ([]EmployeeComputation, error)

	irregularity.ComputationSource
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

const insertRunQuery = `
INSERT INTO payroll_runs
	(id, run_number, entity_id, entity_name, payroll_period, currency, status,
	 employee_count, exception_count, total_net_pay, initiation_status,
	 rejection_reason, created_by, payroll_manager_id, finance_staff_id,
	 created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
`

func (r *repository) Create(ctx context.Context, run *PayrollRun) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, insertRunQuery,
			run.ID, run.RunNumber, run.EntityID, run.EntityName, run.PayrollPeriod,
			run.Currency, run.Status, run.EmployeeCount, run.ExceptionCount,
			run.TotalNetPay, run.InitiationStatus, run.RejectionReason,
			run.CreatedBy, run.PayrollManagerID, run.FinanceStaffID,
		)
		return mapInsertError(err)
	}
	return mapInsertError(r.db.WithContext(ctx).Create(run).Error)
}

// mapInsertError surfaces a unique-constraint race on run_number as the
// domain conflict instead of a raw database error.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return payrollrunerrors.ErrRunAlreadyExists
	}
	return err
}

const updateRunQuery = `
UPDATE payroll_runs
SET status = $1, employee_count = $2, exception_count = $3, total_net_pay = $4,
	initiation_status = $5, initiation_reviewer_id = $6, initiation_reviewed_at = $7,
	rejection_reason = $8, payroll_manager_id = $9, finance_staff_id = $10,
	approved_at = $11, paid_at = $12, updated_at = now()
WHERE id = $13
`

func (r *repository) Update(ctx context.Context, run *PayrollRun) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, updateRunQuery,
			run.Status, run.EmployeeCount, run.ExceptionCount, run.TotalNetPay,
			run.InitiationStatus, run.InitiationReviewerID, run.InitiationReviewedAt,
			run.RejectionReason, run.PayrollManagerID, run.FinanceStaffID,
			run.ApprovedAt, run.PaidAt, run.ID,
		)
		return err
	}
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *repository) FindByID(ctx context.Context, entityID, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

const selectRunForUpdateQuery = `
SELECT id, run_number, entity_id, entity_name, payroll_period, currency, status,
	employee_count, exception_count, total_net_pay, initiation_status,
	initiation_reviewer_id, initiation_reviewed_at, rejection_reason, created_by,
	payroll_manager_id, finance_staff_id, approved_at, paid_at, created_at, updated_at
FROM payroll_runs
WHERE id = $1 AND entity_id = $2
FOR UPDATE
`

func (r *repository) FindByIDForUpdate(ctx context.Context, entityID, id string) (*PayrollRun, error) {
	if r.tx == nil {
		return nil, errors.New("FindByIDForUpdate requires a transaction")
	}
	var run PayrollRun
	err := r.tx.QueryRowContext(ctx, selectRunForUpdateQuery, id, entityID).Scan(
		&run.ID, &run.RunNumber, &run.EntityID, &run.EntityName, &run.PayrollPeriod,
		&run.Currency, &run.Status, &run.EmployeeCount, &run.ExceptionCount,
		&run.TotalNetPay, &run.InitiationStatus, &run.InitiationReviewerID,
		&run.InitiationReviewedAt, &run.RejectionReason, &run.CreatedBy,
		&run.PayrollManagerID, &run.FinanceStaffID, &run.ApprovedAt, &run.PaidAt,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *repository) FindAll(ctx context.Context, entityID, status string, limit, offset int) ([]PayrollRun, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&PayrollRun{}).Where("entity_id = ?", entityID)
	if status != "" {
		base = base.Where("status = ?", status)
	}
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []PayrollRun
	err := base.
		Order("payroll_period DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	return runs, total, err
}

func (r *repository) ExistsOpenForPeriod(ctx context.Context, entityID string, period time.Time, excludeRunID *string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&PayrollRun{}).
		Where("entity_id = ? AND payroll_period = ?", entityID, period)
	if excludeRunID != nil {
		q = q.Where("id <> ?", *excludeRunID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

const insertComputationQuery = `
INSERT INTO employee_computations
	(id, payroll_run_id, employee_id, base_salary, prorated_salary, gross_salary,
	 total_deductions, net_pay, details, has_bank_account, excluded,
	 exclusion_reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
`

func (r *repository) InsertComputations(ctx context.Context, comps []EmployeeComputation) error {
	if r.tx != nil {
		for i := range comps {
			c := &comps[i]
			_, err := r.tx.ExecContext(ctx, insertComputationQuery,
				c.ID, c.PayrollRunID, c.EmployeeID, c.BaseSalary, c.ProratedSalary,
				c.GrossSalary, c.TotalDeductions, c.NetPay, c.Details,
				c.HasBankAccount, c.Excluded, c.ExclusionReason,
			)
			if err != nil {
				return err
			}
		}
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(comps, 200).Error
}

func (r *repository) ReplaceComputations(ctx context.Context, runID string, comps []EmployeeComputation) error {
	if r.tx != nil {
		if _, err := r.tx.ExecContext(ctx,
			`DELETE FROM employee_computations WHERE payroll_run_id = $1`, runID); err != nil {
			return err
		}
		return r.InsertComputations(ctx, comps)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payroll_run_id = ?", runID).
			Delete(&EmployeeComputation{}).Error; err != nil {
			return err
		}
		if len(comps) == 0 {
			return nil
		}
		return tx.CreateInBatches(comps, 200).Error
	})
}

func (r *repository) ListComputations(ctx context.Context, runID string) ([]EmployeeComputation, error) {
	var comps []EmployeeComputation
	err := r.db.WithContext(ctx).
		Where("payroll_run_id = ?", runID).
		Order("employee_id ASC").
		Find(&comps).Error
	return comps, err
}

// ListComputationViews feeds the irregularity detector without exposing the
// full computation rows. The run's payroll period rides along as the spike
// baseline cutoff.
func (r *repository) ListComputationViews(ctx context.Context, entityID, runID string) ([]irregularity.ComputationView, time.Time, error) {
	run, err := r.FindByID(ctx, entityID, runID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if run == nil {
		return nil, time.Time{}, gorm.ErrRecordNotFound
	}

	comps, err := r.ListComputations(ctx, runID)
	if err != nil {
		return nil, time.Time{}, err
	}
	views := make([]irregularity.ComputationView, 0, len(comps))
	for _, c := range comps {
		views = append(views, irregularity.ComputationView{
			EmployeeID:     c.EmployeeID,
			GrossSalary:    c.GrossSalary,
			NetPay:         c.NetPay,
			HasBankAccount: c.HasBankAccount,
			Excluded:       c.Excluded,
		})
	}
	return views, run.PayrollPeriod, nil
}

func (r *repository) UpdateExceptionCount(ctx context.Context, runID string, count int) error {
	return r.db.WithContext(ctx).Model(&PayrollRun{}).
		Where("id = ?", runID).
		Update("exception_count", count).Error
}

func (r *repository) PriorGrossSalary(ctx context.Context, entityID string, employeeID uuid.UUID, beforePeriod time.Time) (*decimal.Decimal, error) {
	var comp EmployeeComputation
	err := r.db.WithContext(ctx).
		Joins("JOIN payroll_runs pr ON pr.id = employee_computations.payroll_run_id").
		Where("pr.entity_id = ? AND pr.payroll_period < ? AND pr.status IN ?",
			entityID, beforePeriod, []string{StatusApproved, StatusPaid}).
		Where("employee_computations.employee_id = ? AND NOT employee_computations.excluded", employeeID).
		Order("pr.payroll_period DESC").
		First(&comp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comp.GrossSalary, nil
}
