package attendance

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// PeriodSummary carries the attendance shortfalls the deduction assembler
// turns into penalties. Attendance records are owned by the attendance
// service; payroll only reads the aggregate.
type PeriodSummary struct {
	EmployeeID   string
	MissingHours float64
	MissingDays  int
}

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	GetPeriodSummary(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) (PeriodSummary, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPeriodSummary(ctx context.Context, employeeID string, periodStart, periodEnd time.Time) (PeriodSummary, error) {
	summary := PeriodSummary{EmployeeID: employeeID}

	query := `
SELECT
	COALESCE(SUM(missing_hours), 0) AS missing_hours,
	COALESCE(SUM(CASE WHEN absent THEN 1 ELSE 0 END), 0) AS missing_days
FROM attendance_records
WHERE employee_id = ?
	AND work_date BETWEEN ? AND ?
`

	err := r.db.WithContext(ctx).
		Raw(query, employeeID, periodStart, periodEnd).
		Scan(&summary).Error
	return summary, err
}
