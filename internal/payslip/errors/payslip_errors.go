package paysliperrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"payslip not found",
		http.StatusNotFound,
	)
	ErrPayslipAlreadyFinalized = apperror.New(
		apperror.CodeConflict,
		"a paid payslip already exists for this employee and period",
		http.StatusConflict,
	)
	ErrDisputeReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a dispute reason is required",
		http.StatusBadRequest,
	)
)
