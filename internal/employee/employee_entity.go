package employee

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive     = "ACTIVE"
	StatusTerminated = "TERMINATED"
	StatusResigned   = "RESIGNED"
)

// Employee is the read-only profile projection this service consumes. Profiles
// are owned by the HR core system; payroll never writes them.
type Employee struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EntityID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	FullName        string     `gorm:"column:full_name"`
	BankAccount     *string    `gorm:"column:bank_account"`
	HireDate        time.Time  `gorm:"type:date"`
	TerminationDate *time.Time `gorm:"type:date"`
	Status          string     `gorm:"type:varchar(20)"`
}

func (Employee) TableName() string {
	return "employees"
}

// EmployedBetween reports whether the employee was on payroll for any part of
// the inclusive date range.
func (e Employee) EmployedBetween(start, end time.Time) bool {
	if e.HireDate.After(end) {
		return false
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(start) {
		return false
	}
	return true
}

// HasBankAccount reports whether a usable bank account is on file.
func (e Employee) HasBankAccount() bool {
	return e.BankAccount != nil && *e.BankAccount != ""
}
