package payrollrun

import (
	payrollrunerrors "go-payroll/internal/payrollrun/errors"
)

// allowedTransitions is the full run lifecycle. PAID is terminal; REJECTED
// can return to DRAFT through regeneration or go straight back to review.
var allowedTransitions = map[string][]string{
	StatusDraft:       {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusRejected:    {StatusDraft, StatusUnderReview},
	StatusApproved:    {StatusPaid},
	StatusPaid:        {},
}

func isAllowedStatusTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition checks a status change against the lifecycle.
func ValidateTransition(from, to string) error {
	if from == StatusPaid {
		return payrollrunerrors.ErrTerminalStateViolation
	}
	if !isAllowedStatusTransition(from, to) {
		return payrollrunerrors.ErrInvalidTransition
	}
	return nil
}

// IsEditable reports whether a run may be edited or regenerated.
func IsEditable(status string) bool {
	return status == StatusDraft || status == StatusRejected
}

// IsKnownStatus reports whether status is one of the lifecycle states.
func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}
