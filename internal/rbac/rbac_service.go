package rbac

import (
	"sync"

	"go-payroll/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

const (
	RolePayrollSpecialist = "PAYROLL_SPECIALIST"
	RolePayrollManager    = "PAYROLL_MANAGER"
	RoleFinanceStaff      = "FINANCE_STAFF"
	RoleAdmin             = "ADMIN"
)

// rolePermissions is the static permission matrix. Role assignments live in
// the users table; what each role may do is fixed by the product, so it is
// declared here instead of a role_permissions table.
var rolePermissions = map[string][][2]string{
	RolePayrollSpecialist: {
		{"payroll-run", "read"}, {"payroll-run", "generate"}, {"payroll-run", "review"},
		{"exception", "read"}, {"exception", "flag"}, {"exception", "resolve"},
		{"payslip", "read"},
	},
	RolePayrollManager: {
		{"payroll-run", "read"}, {"payroll-run", "approve"},
		{"exception", "read"},
		{"payslip", "read"},
	},
	RoleFinanceStaff: {
		{"payroll-run", "read"}, {"payroll-run", "approve"}, {"payroll-run", "pay"},
		{"exception", "read"},
		{"payslip", "read"},
	},
	RoleAdmin: {
		{"payroll-run", "read"}, {"payroll-run", "generate"}, {"payroll-run", "review"},
		{"payroll-run", "approve"}, {"payroll-run", "pay"},
		{"exception", "read"}, {"exception", "flag"}, {"exception", "resolve"},
		{"payslip", "read"},
	},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	repo     Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(repo Repository, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{repo: repo, enforcer: enforcer, logger: l}
}

func (s *service) loadEntityPolicyUnlocked(entityID string) error {
	s.enforcer.ClearPolicy()

	employeeRoles, err := s.repo.GetEmployeeRoles(entityID)
	if err != nil {
		return err
	}

	for _, er := range employeeRoles {
		if _, err := s.enforcer.AddGroupingPolicy(er.EmployeeID, er.Role, entityID); err != nil {
			return err
		}
	}

	for role, perms := range rolePermissions {
		for _, p := range perms {
			if _, err := s.enforcer.AddPolicy(role, entityID, p[0], p[1]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadEntityPolicyUnlocked(req.EntityID); err != nil {
		return false, err
	}

	allowed, err := s.enforcer.Enforce(
		req.EmployeeID,
		req.EntityID,
		req.Resource,
		req.Action,
	)
	if err != nil {
		return false, err
	}

	s.logger.Debug("rbac enforce",
		zap.String("employee_id", req.EmployeeID),
		zap.String("entity_id", req.EntityID),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)

	return allowed, nil
}
