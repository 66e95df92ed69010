package leave

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	// GetApprovedLeaves returns approved leaves of the employee overlapping
	// the inclusive period.
	GetApprovedLeaves(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]ApprovedLeave, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetApprovedLeaves(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) ([]ApprovedLeave, error) {
	var leaves []ApprovedLeave

	query := `
SELECT
	leaves.id,
	leaves.employee_id,
	leaves.leave_type,
	leave_types.paid,
	leave_types.deductible,
	leaves.start_date,
	leaves.end_date
FROM leaves
JOIN leave_types ON leave_types.name = leaves.leave_type
WHERE leaves.employee_id = ?
	AND leaves.status = 'APPROVED'
	AND leaves.start_date <= ?
	AND leaves.end_date >= ?
ORDER BY leaves.start_date ASC
`

	err := r.db.WithContext(ctx).Raw(query, employeeID, periodEnd, periodStart).Scan(&leaves).Error
	return leaves, err
}

// UnpaidDaysWithin sums the in-period day counts of unpaid leaves.
func UnpaidDaysWithin(leaves []ApprovedLeave, periodStart, periodEnd time.Time) int {
	days := 0
	for _, l := range leaves {
		if !l.Unpaid() {
			continue
		}
		days += l.DaysWithin(periodStart, periodEnd)
	}
	return days
}
