package payrollconfig

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=config_repo.go -destination=mock/config_repo_mock.go -package=mock
type Repository interface {
	// FindActiveSalary returns the salary record effective on asOf: the latest
	// effective_date <= asOf with no end date or end_date >= asOf, ties broken
	// by most recent created_at. Returns gorm.ErrRecordNotFound when none.
	FindActiveSalary(ctx context.Context, entityID, employeeID string, asOf time.Time) (*SalaryRecord, error)
	FindActiveAllowances(ctx context.Context, entityID, employeeID string, asOf time.Time) ([]AllowanceDef, error)
	FindActiveTaxRules(ctx context.Context, entityID string, asOf time.Time) ([]TaxRule, error)
	FindActiveInsurancePlans(ctx context.Context, entityID string, asOf time.Time) ([]InsurancePlan, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveSalary(ctx context.Context, entityID, employeeID string, asOf time.Time) (*SalaryRecord, error) {
	var record SalaryRecord
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Where("employee_id = ?", employeeID).
		Where("effective_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("effective_date DESC").
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) FindActiveAllowances(ctx context.Context, entityID, employeeID string, asOf time.Time) ([]AllowanceDef, error) {
	var allowances []AllowanceDef
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Where("employee_id = ?", employeeID).
		Where("effective_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("name ASC").
		Order("created_at DESC").
		Find(&allowances).Error
	return allowances, err
}

func (r *repository) FindActiveTaxRules(ctx context.Context, entityID string, asOf time.Time) ([]TaxRule, error) {
	var rules []TaxRule
	err := r.db.WithContext(ctx).
		Preload("Brackets", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_amount ASC")
		}).
		Where("entity_id = ?", entityID).
		Where("effective_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("name ASC").
		Find(&rules).Error
	return rules, err
}

func (r *repository) FindActiveInsurancePlans(ctx context.Context, entityID string, asOf time.Time) ([]InsurancePlan, error) {
	var plans []InsurancePlan
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Where("effective_date <= ?", asOf).
		Where("end_date IS NULL OR end_date >= ?", asOf).
		Order("name ASC").
		Find(&plans).Error
	return plans, err
}
