package payrollconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	payrollconfigerrors "go-payroll/internal/payrollconfig/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// EntitySnapshot is the entity-wide part of the configuration (tax rules and
// insurance plans): identical for every employee of a run, so it is loaded
// once per (entity, date).
type EntitySnapshot struct {
	TaxRules       []TaxRule
	InsurancePlans []InsurancePlan
}

//go:generate mockgen -source=config_service.go -destination=mock/config_service_mock.go -package=mock
type Service interface {
	// Resolve returns the effective rate configuration for one employee on
	// asOfDate. Fails with ErrSalaryConfigMissing when no active salary
	// record exists.
	Resolve(ctx context.Context, entityID, employeeID string, asOfDate time.Time) (RateProfile, error)
	// EntityConfig returns the shared tax/insurance snapshot for the entity.
	EntityConfig(ctx context.Context, entityID string, asOfDate time.Time) (EntitySnapshot, error)
}

type service struct {
	repo   Repository
	sf     singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payrollconfig.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payrollconfig.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Resolve(ctx context.Context, entityID, employeeID string, asOfDate time.Time) (RateProfile, error) {
	if _, err := uuid.Parse(entityID); err != nil {
		return RateProfile{}, payrollconfigerrors.ErrInvalidEntityID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return RateProfile{}, payrollconfigerrors.ErrInvalidEmployeeID
	}

	salary, err := s.repo.FindActiveSalary(ctx, entityID, employeeID, asOfDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("salary config missing",
				zap.String("entity_id", entityID),
				zap.String("employee_id", employeeID),
				zap.Time("as_of", asOfDate),
			)
			return RateProfile{}, payrollconfigerrors.ErrSalaryConfigMissing
		}
		return RateProfile{}, err
	}

	allowances, err := s.repo.FindActiveAllowances(ctx, entityID, employeeID, asOfDate)
	if err != nil {
		return RateProfile{}, err
	}

	snapshot, err := s.EntityConfig(ctx, entityID, asOfDate)
	if err != nil {
		return RateProfile{}, err
	}

	return RateProfile{
		EmployeeID:     employeeUUID,
		AsOfDate:       asOfDate,
		BaseSalary:     salary.BaseSalary,
		Allowances:     allowances,
		TaxRules:       snapshot.TaxRules,
		InsurancePlans: snapshot.InsurancePlans,
	}, nil
}

func (s *service) EntityConfig(ctx context.Context, entityID string, asOfDate time.Time) (EntitySnapshot, error) {
	// Collapse the N concurrent per-employee loads of a batch into one query
	// pair per entity/date.
	key := fmt.Sprintf("%s:%s", entityID, asOfDate.Format("2006-01-02"))
	v, err, _ := s.sf.Do(key, func() (any, error) {
		taxRules, err := s.repo.FindActiveTaxRules(ctx, entityID, asOfDate)
		if err != nil {
			return nil, err
		}
		plans, err := s.repo.FindActiveInsurancePlans(ctx, entityID, asOfDate)
		if err != nil {
			return nil, err
		}
		return EntitySnapshot{TaxRules: taxRules, InsurancePlans: plans}, nil
	})
	if err != nil {
		return EntitySnapshot{}, err
	}
	return v.(EntitySnapshot), nil
}
