package employee

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	GetByID(ctx context.Context, entityID, id string) (*Employee, error)
	// ListEligibleForPeriod returns every employee of the entity employed for
	// any part of the inclusive period, ordered by id for deterministic batch
	// iteration.
	ListEligibleForPeriod(ctx context.Context, entityID string, periodStart, periodEnd time.Time) ([]Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, entityID, id string) (*Employee, error) {
	var emp Employee
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Where("entity_id = ?", entityID).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *repository) ListEligibleForPeriod(ctx context.Context, entityID string, periodStart, periodEnd time.Time) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Where("hire_date <= ?", periodEnd).
		Where("termination_date IS NULL OR termination_date >= ?", periodStart).
		Order("id ASC").
		Find(&employees).Error
	return employees, err
}
