package paystuberrors

import (
	"net/http"

	"go-paystub/internal/shared/apperror"
)

// Per-employee generation error codes.
const (
	CodeEmployeeNotInPeriod = "EMPLOYEE_NOT_IN_PERIOD"
	CodeDuplicatePayStub    = "DUPLICATE_PAY_STUB"
	CodePDFRenderFailed     = "PDF_RENDER_FAILED"
	CodeEmailDeliveryFailed = "EMAIL_DELIVERY_FAILED"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidPayStubID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pay stub id",
		http.StatusBadRequest,
	)
	ErrInvalidPayrollPeriodID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll period id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start date must be before or equal end date",
		http.StatusBadRequest,
	)
	ErrInvalidAmountRange = apperror.New(
		apperror.CodeInvalidInput,
		"min_amount must be less than or equal max_amount",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pay stub status filter",
		http.StatusBadRequest,
	)
	ErrValidation = apperror.New(
		apperror.CodeValidation,
		"pay stub data failed validation",
		http.StatusUnprocessableEntity,
	)
	ErrPayStubNotFound = apperror.New(
		apperror.CodeNotFound,
		"pay stub not found",
		http.StatusNotFound,
	)
	ErrPayrollPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll period not found",
		http.StatusNotFound,
	)
	ErrEmployeeNotInPeriod = apperror.New(
		CodeEmployeeNotInPeriod,
		"employee has no calculated payroll in this period",
		http.StatusUnprocessableEntity,
	)
	ErrDuplicatePayStub = apperror.New(
		CodeDuplicatePayStub,
		"pay stub already exists for this employee and period",
		http.StatusConflict,
	)
	ErrPDFRenderFailed = apperror.New(
		CodePDFRenderFailed,
		"failed to render pay stub pdf",
		http.StatusBadGateway,
	)
	ErrEmailDeliveryFailed = apperror.New(
		CodeEmailDeliveryFailed,
		"failed to deliver pay stub email",
		http.StatusBadGateway,
	)
	ErrPDFNotAvailable = apperror.New(
		apperror.CodeInvalidState,
		"pay stub pdf is not available",
		http.StatusConflict,
	)
	ErrInvalidOperation = apperror.New(
		apperror.CodeInvalidInput,
		"unknown batch operation",
		http.StatusBadRequest,
	)
	ErrEmptyBatch = apperror.New(
		apperror.CodeInvalidInput,
		"pay_stub_ids must not be empty",
		http.StatusBadRequest,
	)
	ErrBatchTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"too many pay stubs in one batch",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid pay stub status transition",
		http.StatusConflict,
	)
)

var ErrAsyncGenerationUnavailable = apperror.New(
	apperror.CodeServiceUnavailable,
	"asynchronous generation is not configured",
	http.StatusServiceUnavailable,
)
