package irregularity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	CodeNegativeNetPay     = "NEGATIVE_NET_PAY"
	CodeMissingBankAccount = "MISSING_BANK_ACCOUNT"
	CodeSalarySpike        = "SALARY_SPIKE"
	CodeOther              = "OTHER"
)

const (
	SourceAuto   = "AUTO"
	SourceManual = "MANUAL"
)

// PayrollException is an audit record: it is resolved with a note, never
// deleted.
type PayrollException struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	PayrollRunID uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID   *uuid.UUID `gorm:"type:uuid;index"` // nil = run-wide
	Code         string     `gorm:"column:exception_code;type:varchar(40);not null"`
	Message      string     `gorm:"type:text;not null"`
	Source       string     `gorm:"type:varchar(10);not null;default:'AUTO'"`
	FlaggedAt    time.Time  `gorm:"not null"`
	Resolved     bool       `gorm:"not null;default:false"`
	Resolution   *string    `gorm:"type:text"`
	ResolvedAt   *time.Time
	ResolvedBy   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PayrollException) TableName() string {
	return "payroll_exceptions"
}

// ComputationView is the slice of an employee computation the detector reads.
// The payroll run module maps its rows into this so detection stays decoupled
// from run storage.
type ComputationView struct {
	EmployeeID     uuid.UUID
	GrossSalary    decimal.Decimal
	NetPay         decimal.Decimal
	HasBankAccount bool
	Excluded       bool
}
