package leave

import (
	"time"

	"github.com/google/uuid"
)

// ApprovedLeave is the read-only projection of an approved leave request
// joined with its leave type. Leave requests are owned by the leave service.
type ApprovedLeave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid"`
	LeaveType  string    `gorm:"column:leave_type"`
	Paid       bool      `gorm:"column:paid"`
	Deductible bool      `gorm:"column:deductible"`
	StartDate  time.Time `gorm:"type:date"`
	EndDate    time.Time `gorm:"type:date"`
}

// DaysWithin counts the leave days that fall inside the inclusive range.
func (l ApprovedLeave) DaysWithin(rangeStart, rangeEnd time.Time) int {
	start := l.StartDate
	if rangeStart.After(start) {
		start = rangeStart
	}
	end := l.EndDate
	if rangeEnd.Before(end) {
		end = rangeEnd
	}
	if start.After(end) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Unpaid reports whether the leave deducts from pay.
func (l ApprovedLeave) Unpaid() bool {
	return !l.Paid || l.Deductible
}
