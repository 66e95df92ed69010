package payrollconfig

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AllowanceRecurring = "RECURRING"
	AllowanceOneTime   = "ONE_TIME"
	AllowanceBonus     = "BONUS"
	AllowanceRefund    = "REFUND"
)

// SalaryRecord is an effective-dated base salary row. Records are appended,
// never updated; the resolver picks the latest effective one.
type SalaryRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BaseSalary    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	EffectiveDate time.Time       `gorm:"type:date;not null"`
	EndDate       *time.Time      `gorm:"type:date"`
	CreatedAt     time.Time
}

type AllowanceDef struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(120);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Taxable       bool            `gorm:"not null;default:true"`
	Kind          string          `gorm:"type:varchar(20);not null;default:'RECURRING'"`
	EffectiveDate time.Time       `gorm:"type:date;not null"`
	EndDate       *time.Time      `gorm:"type:date"`
	CreatedAt     time.Time
}

// TaxRule is an entity-wide tax definition. Progressive rules carry brackets;
// flat rules apply Rate to the whole taxable base. ExemptAmount comes off the
// base before either.
type TaxRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(120);not null"`
	Rate          decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	IsProgressive bool            `gorm:"not null;default:false"`
	ExemptAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	EffectiveDate time.Time       `gorm:"type:date;not null"`
	EndDate       *time.Time      `gorm:"type:date"`
	CreatedAt     time.Time

	Brackets []TaxBracket `gorm:"foreignKey:TaxRuleID"`
}

type TaxBracket struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TaxRuleID uuid.UUID        `gorm:"type:uuid;not null;index"`
	MinAmount decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	MaxAmount *decimal.Decimal `gorm:"type:decimal(18,2)"` // nil = open-ended top bracket
	Rate      decimal.Decimal  `gorm:"type:decimal(8,4);not null"`
}

// InsurancePlan splits contributions between employee and employer. A rate
// plan contributes rate*base; otherwise the fixed amounts apply. Employer
// share is never deducted from pay.
type InsurancePlan struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EntityID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name                string          `gorm:"type:varchar(120);not null"`
	EmployeeRate        decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	EmployerRate        decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	FixedEmployeeAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	FixedEmployerAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	EffectiveDate       time.Time       `gorm:"type:date;not null"`
	EndDate             *time.Time      `gorm:"type:date"`
	CreatedAt           time.Time
}

func (p InsurancePlan) EmployeeContribution(base decimal.Decimal) decimal.Decimal {
	if p.EmployeeRate.IsPositive() {
		return base.Mul(p.EmployeeRate).Round(2)
	}
	return p.FixedEmployeeAmount
}

func (p InsurancePlan) EmployerContribution(base decimal.Decimal) decimal.Decimal {
	if p.EmployerRate.IsPositive() {
		return base.Mul(p.EmployerRate).Round(2)
	}
	return p.FixedEmployerAmount
}

// RateProfile is the resolved configuration snapshot for one employee on one
// date. It is a value object; the resolver never mutates stored rows.
type RateProfile struct {
	EmployeeID     uuid.UUID
	AsOfDate       time.Time
	BaseSalary     decimal.Decimal
	Allowances     []AllowanceDef
	TaxRules       []TaxRule
	InsurancePlans []InsurancePlan
}

// TaxableEarnings sums base salary (or the prorated override) with taxable
// allowances.
func (p RateProfile) TaxableEarnings(salary decimal.Decimal) decimal.Decimal {
	total := salary
	for _, a := range p.Allowances {
		if a.Taxable {
			total = total.Add(a.Amount)
		}
	}
	return total
}
