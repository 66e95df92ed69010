package rbac

import "gorm.io/gorm"

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetEmployeeRoles(entityID string) ([]EmployeeRoleRow, error)
}

type EmployeeRoleRow struct {
	EmployeeID string
	Role       string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEmployeeRoles(entityID string) ([]EmployeeRoleRow, error) {
	var result []EmployeeRoleRow

	err := r.db.
		Table("users").
		Select("users.employee_id, users.role").
		Where("users.entity_id = ?", entityID).
		Where("users.active = true").
		Scan(&result).Error

	return result, err
}
