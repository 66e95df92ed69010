package irregularityerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrExceptionNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll exception not found",
		http.StatusNotFound,
	)
	ErrExceptionAlreadyResolved = apperror.New(
		apperror.CodeInvalidState,
		"payroll exception is already resolved",
		http.StatusConflict,
	)
	ErrResolutionRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a resolution note is required",
		http.StatusBadRequest,
	)
	ErrInvalidExceptionCode = apperror.New(
		apperror.CodeInvalidInput,
		"invalid exception code",
		http.StatusBadRequest,
	)
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
)
