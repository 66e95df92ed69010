package payrollrun

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft       = "DRAFT"
	StatusUnderReview = "UNDER_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
	StatusPaid        = "PAID"
)

const (
	InitiationPending  = "PENDING"
	InitiationApproved = "APPROVED"
	InitiationRejected = "REJECTED"
)

type PayrollRun struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RunNumber      string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	EntityID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_runs_entity_period"`
	EntityName     string          `gorm:"type:varchar(120);not null"`
	PayrollPeriod  time.Time       `gorm:"type:date;not null;index:idx_runs_entity_period"`
	Currency       string          `gorm:"type:varchar(3);not null"`
	Status         string          `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	EmployeeCount  int             `gorm:"not null;default:0"`
	ExceptionCount int             `gorm:"not null;default:0"`
	TotalNetPay    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`

	// Initiation review is the payroll specialist gate that precedes the
	// manager/finance content review.
	InitiationStatus     string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	InitiationReviewerID *uuid.UUID `gorm:"type:uuid"`
	InitiationReviewedAt *time.Time

	RejectionReason  *string    `gorm:"type:text"`
	CreatedBy        uuid.UUID  `gorm:"type:uuid;not null"`
	PayrollManagerID *uuid.UUID `gorm:"type:uuid"`
	FinanceStaffID   *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt       *time.Time
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (PayrollRun) TableName() string {
	return "payroll_runs"
}

// PayLine is one named earning or deduction item inside a computation detail.
type PayLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type TaxDetail struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

type InsuranceDetail struct {
	Name                 string          `json:"name"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
}

type PenaltyDetail struct {
	MissingHours          float64         `json:"missing_hours"`
	MissingDays           int             `json:"missing_days"`
	UnpaidLeaveDays       int             `json:"unpaid_leave_days"`
	MissingHoursDeduction decimal.Decimal `json:"missing_hours_deduction"`
	MissingDaysDeduction  decimal.Decimal `json:"missing_days_deduction"`
	UnpaidLeaveDeduction  decimal.Decimal `json:"unpaid_leave_deduction"`
}

// ComputationDetail is the itemized breakdown stored as jsonb next to the
// scalar columns.
type ComputationDetail struct {
	Allowances []PayLine         `json:"allowances"`
	Bonuses    []PayLine         `json:"bonuses"`
	Refunds    []PayLine         `json:"refunds"`
	Taxes      []TaxDetail       `json:"taxes"`
	Insurances []InsuranceDetail `json:"insurances"`
	Penalties  PenaltyDetail     `json:"penalties"`
}

// EmployeeComputation is one employee's gross-to-net result within a run.
// Regeneration replaces these rows wholesale; they are never patched.
type EmployeeComputation struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey"`
	PayrollRunID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	EmployeeID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	BaseSalary      decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	ProratedSalary  *decimal.Decimal `gorm:"type:decimal(18,2)"`
	GrossSalary     decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	TotalDeductions decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	NetPay          decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Details         []byte           `gorm:"type:jsonb"`
	HasBankAccount  bool             `gorm:"not null;default:true"`
	Excluded        bool             `gorm:"not null;default:false"`
	ExclusionReason *string          `gorm:"type:text"`
	CreatedAt       time.Time
}

func (EmployeeComputation) TableName() string {
	return "employee_computations"
}

func (c *EmployeeComputation) SetDetail(d ComputationDetail) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	c.Details = raw
	return nil
}

func (c *EmployeeComputation) Detail() (ComputationDetail, error) {
	var d ComputationDetail
	if len(c.Details) == 0 {
		return d, nil
	}
	err := json.Unmarshal(c.Details, &d)
	return d, err
}

// EffectiveSalary is the prorated salary when proration applied, otherwise
// the base salary.
func (c *EmployeeComputation) EffectiveSalary() decimal.Decimal {
	if c.ProratedSalary != nil {
		return *c.ProratedSalary
	}
	return c.BaseSalary
}
