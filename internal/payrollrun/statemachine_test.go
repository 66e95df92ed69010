package payrollrun_test

import (
	"testing"

	"go-payroll/internal/payrollrun"
	payrollrunerrors "go-payroll/internal/payrollrun/errors"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"draft to under review", payrollrun.StatusDraft, payrollrun.StatusUnderReview, nil},
		{"under review to approved", payrollrun.StatusUnderReview, payrollrun.StatusApproved, nil},
		{"under review to rejected", payrollrun.StatusUnderReview, payrollrun.StatusRejected, nil},
		{"rejected back to draft", payrollrun.StatusRejected, payrollrun.StatusDraft, nil},
		{"rejected resubmitted", payrollrun.StatusRejected, payrollrun.StatusUnderReview, nil},
		{"approved to paid", payrollrun.StatusApproved, payrollrun.StatusPaid, nil},
		{"draft cannot be approved directly", payrollrun.StatusDraft, payrollrun.StatusApproved, payrollrunerrors.ErrInvalidTransition},
		{"draft cannot be paid", payrollrun.StatusDraft, payrollrun.StatusPaid, payrollrunerrors.ErrInvalidTransition},
		{"approved cannot return to review", payrollrun.StatusApproved, payrollrun.StatusUnderReview, payrollrunerrors.ErrInvalidTransition},
		{"paid is terminal", payrollrun.StatusPaid, payrollrun.StatusDraft, payrollrunerrors.ErrTerminalStateViolation},
		{"paid cannot be re-paid", payrollrun.StatusPaid, payrollrun.StatusPaid, payrollrunerrors.ErrTerminalStateViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payrollrun.ValidateTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIsEditable(t *testing.T) {
	assert.True(t, payrollrun.IsEditable(payrollrun.StatusDraft))
	assert.True(t, payrollrun.IsEditable(payrollrun.StatusRejected))
	assert.False(t, payrollrun.IsEditable(payrollrun.StatusUnderReview))
	assert.False(t, payrollrun.IsEditable(payrollrun.StatusApproved))
	assert.False(t, payrollrun.IsEditable(payrollrun.StatusPaid))
}
