package payrollrunerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrInvalidRunID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll run id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"payroll period must be a valid end-of-month date",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"unknown payroll run status filter",
		http.StatusBadRequest,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"payroll run status does not allow this operation",
		http.StatusConflict,
	)
	ErrTerminalStateViolation = apperror.New(
		apperror.CodeInvalidState,
		"payroll run is already paid and can no longer change",
		http.StatusConflict,
	)
	ErrMissingApprovers = apperror.New(
		apperror.CodeInvalidInput,
		"both a payroll manager and a finance staff reviewer are required",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a rejection reason is required",
		http.StatusBadRequest,
	)
	ErrRunAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"a payroll run already exists for this period and entity",
		http.StatusConflict,
	)
	ErrDuplicateRunInProgress = apperror.New(
		apperror.CodeConflict,
		"a payroll run for this period and entity is already being generated",
		http.StatusConflict,
	)
	ErrRunNotEditable = apperror.New(
		apperror.CodeInvalidState,
		"payroll run can only be regenerated while in draft or rejected status",
		http.StatusConflict,
	)
	ErrInitiationNotApproved = apperror.New(
		apperror.CodeInvalidState,
		"payroll run initiation has not been approved yet",
		http.StatusConflict,
	)
	ErrInitiationAlreadyReviewed = apperror.New(
		apperror.CodeInvalidState,
		"payroll run initiation has already been reviewed",
		http.StatusConflict,
	)
	ErrUnknownApproverRole = apperror.New(
		apperror.CodeInvalidInput,
		"approver role must be MANAGER or FINANCE",
		http.StatusBadRequest,
	)
)
