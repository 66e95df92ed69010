package approval

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// Upsert stores the decision for (run, role), replacing a prior row.
	Upsert(ctx context.Context, decision *Decision) error
	FindByRun(ctx context.Context, runID string) ([]Decision, error)
	DeleteByRun(ctx context.Context, runID string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Upsert(ctx context.Context, decision *Decision) error {
	if r.tx != nil {
		query := `
INSERT INTO approval_decisions (id, payroll_run_id, approver_role, approver_id, state, reason, decided_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
ON CONFLICT (payroll_run_id, approver_role) DO UPDATE
SET approver_id = EXCLUDED.approver_id,
	state = EXCLUDED.state,
	reason = EXCLUDED.reason,
	decided_at = EXCLUDED.decided_at,
	updated_at = now()
`
		_, err := r.tx.ExecContext(ctx, query,
			decision.ID, decision.PayrollRunID, decision.ApproverRole,
			decision.ApproverID, decision.State, decision.Reason, decision.DecidedAt,
		)
		return err
	}

	return r.db.WithContext(ctx).Save(decision).Error
}

func (r *repository) FindByRun(ctx context.Context, runID string) ([]Decision, error) {
	if r.tx != nil {
		rows, err := r.tx.QueryContext(ctx, `
SELECT id, payroll_run_id, approver_role, approver_id, state, reason, decided_at
FROM approval_decisions
WHERE payroll_run_id = $1
ORDER BY approver_role ASC
`, runID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var decisions []Decision
		for rows.Next() {
			var d Decision
			if err := rows.Scan(&d.ID, &d.PayrollRunID, &d.ApproverRole,
				&d.ApproverID, &d.State, &d.Reason, &d.DecidedAt); err != nil {
				return nil, err
			}
			decisions = append(decisions, d)
		}
		return decisions, rows.Err()
	}

	var decisions []Decision
	err := r.db.WithContext(ctx).
		Where("payroll_run_id = ?", runID).
		Order("approver_role ASC").
		Find(&decisions).Error
	return decisions, err
}

func (r *repository) DeleteByRun(ctx context.Context, runID string) error {
	if r.tx != nil {
		_, err := r.tx.ExecContext(ctx, `DELETE FROM approval_decisions WHERE payroll_run_id = $1`, runID)
		return err
	}
	return r.db.WithContext(ctx).
		Where("payroll_run_id = ?", runID).
		Delete(&Decision{}).Error
}
