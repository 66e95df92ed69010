package payrollconfigerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrSalaryConfigMissing = apperror.New(
		apperror.CodeNotFound,
		"no active salary configuration for employee on the requested date",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidEntityID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid entity id",
		http.StatusBadRequest,
	)
)
