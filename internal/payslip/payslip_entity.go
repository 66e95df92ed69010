package payslip

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

const (
	StatusPending      = "pending"
	StatusPaid         = "paid"
	StatusDisputed     = "disputed"
	StatusPaidDisputed = "paid-disputed"
)

// Payslip is the immutable snapshot of one employee's finalized computation.
// After creation only payment status and dispute fields may change; pay
// amounts never do. Corrections go through a new run.
type Payslip struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PayrollRunID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntityID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayrollPeriod     time.Time       `gorm:"type:date;not null"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	EarningsDetails   []byte          `gorm:"type:jsonb"`
	DeductionsDetails []byte          `gorm:"type:jsonb"`
	TotalGrossSalary  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalDeductions   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetPay            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentStatus     string          `gorm:"type:varchar(10);not null;default:'PENDING'"`
	Status            string          `gorm:"type:varchar(20);not null;default:'pending'"`
	HasActiveDispute  bool            `gorm:"not null;default:false"`
	LatestDisputeID   *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Payslip) TableName() string {
	return "payslips"
}
