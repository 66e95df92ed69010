package approval

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleManager = "MANAGER"
	RoleFinance = "FINANCE"
)

const (
	StatePending  = "PENDING"
	StateApproved = "APPROVED"
	StateRejected = "REJECTED"
)

// Decision is one approver's recorded verdict on a payroll run. There is at
// most one row per (run, role); re-recording overwrites a pending decision.
type Decision struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollRunID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_run_role"`
	ApproverRole string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_run_role"`
	ApproverID   uuid.UUID `gorm:"type:uuid;not null"`
	State        string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Reason       *string   `gorm:"type:text"`
	DecidedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Outcome is the combined verdict of the two-party gate.
type Outcome struct {
	State  string // PENDING, APPROVED or REJECTED
	Reason string // set when State is REJECTED
}

// Combine reduces the manager and finance decisions into one run-level
// outcome. A single rejection decides the run; approval requires both.
// Rejection wins over a still-pending counterpart so a run never lingers
// waiting for the second decision once one party said no.
func Combine(manager, finance Decision) Outcome {
	if manager.State == StateRejected {
		return Outcome{State: StateRejected, Reason: reasonOf(manager)}
	}
	if finance.State == StateRejected {
		return Outcome{State: StateRejected, Reason: reasonOf(finance)}
	}
	if manager.State == StateApproved && finance.State == StateApproved {
		return Outcome{State: StateApproved}
	}
	return Outcome{State: StatePending}
}

func reasonOf(d Decision) string {
	if d.Reason != nil {
		return *d.Reason
	}
	return ""
}
