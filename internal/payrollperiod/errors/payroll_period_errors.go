package payrollperioderrors

import (
	"net/http"

	"go-paystub/internal/shared/apperror"
)

var (
	ErrPayrollPeriodNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll period not found",
		http.StatusNotFound,
	)
	ErrPayrollEntryNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee has no calculated payroll entry in this period",
		http.StatusNotFound,
	)
)
