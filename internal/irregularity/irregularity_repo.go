package irregularity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

//go:generate mockgen -source=irregularity_repo.go -destination=mock/irregularity_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// UpsertAuto records an auto-flagged exception. Re-running detection for
	// the same (run, employee, code) refreshes the existing unresolved row
	// instead of inserting a duplicate.
	UpsertAuto(ctx context.Context, exc *PayrollException) error
	Create(ctx context.Context, exc *PayrollException) error
	Update(ctx context.Context, exc *PayrollException) error
	FindByID(ctx context.Context, entityID, id string) (*PayrollException, error)
	FindByRun(ctx context.Context, entityID, runID string) ([]PayrollException, error)
	CountUnresolvedByRun(ctx context.Context, runID string) (int64, error)
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

const upsertAutoQuery = `
INSERT INTO payroll_exceptions
	(id, entity_id, payroll_run_id, employee_id, exception_code, message, source, flagged_at, resolved, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 'AUTO', $7, false, now(), now())
ON CONFLICT (payroll_run_id, employee_id, exception_code) WHERE NOT resolved AND source = 'AUTO'
DO UPDATE SET message = EXCLUDED.message,
	flagged_at = EXCLUDED.flagged_at,
	updated_at = now()
`

func (r *repository) UpsertAuto(ctx context.Context, exc *PayrollException) error {
	args := []any{
		exc.ID, exc.EntityID, exc.PayrollRunID, exc.EmployeeID,
		exc.Code, exc.Message, exc.FlaggedAt,
	}
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, upsertAutoQuery, args...)
		return err
	}
	return r.db.WithContext(ctx).Exec(upsertAutoQuery, args...).Error
}

func (r *repository) Create(ctx context.Context, exc *PayrollException) error {
	return r.db.WithContext(ctx).Create(exc).Error
}

func (r *repository) Update(ctx context.Context, exc *PayrollException) error {
	return r.db.WithContext(ctx).Save(exc).Error
}

func (r *repository) FindByID(ctx context.Context, entityID, id string) (*PayrollException, error) {
	var exc PayrollException
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		First(&exc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exc, nil
}

func (r *repository) FindByRun(ctx context.Context, entityID, runID string) ([]PayrollException, error) {
	var excs []PayrollException
	err := r.db.WithContext(ctx).
		Where("payroll_run_id = ? AND entity_id = ?", runID, entityID).
		Order("flagged_at ASC, created_at ASC").
		Find(&excs).Error
	return excs, err
}

func (r *repository) CountUnresolvedByRun(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PayrollException{}).
		Where("payroll_run_id = ? AND NOT resolved", runID).
		Count(&count).Error
	return count, err
}

// ComputationSource abstracts the run rows the detector scans, plus the
// exception tally denormalized onto the run. The payroll run repository
// satisfies it so this package never imports run storage.
type ComputationSource interface {
	// ListComputationViews returns the run's computation rows together with
	// its payroll period, so spike detection has a baseline cutoff even when
	// the caller only knows the run id.
	ListComputationViews(ctx context.Context, entityID, runID string) ([]ComputationView, time.Time, error)
	// PriorGrossSalary returns the employee's gross from the most recent
	// approved or paid run before the given period, or nil when none exists.
	PriorGrossSalary(ctx context.Context, entityID string, employeeID uuid.UUID, beforePeriod time.Time) (*decimal.Decimal, error)
	UpdateExceptionCount(ctx context.Context, runID string, count int) error
}
