package compliance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Earning categories the rules look at.
const (
	EarningRegular    = "regular"
	EarningOvertime   = "overtime"
	EarningDoubleTime = "double_time"
)

// Tax categories the federal rules look at.
const (
	TaxFederalIncome  = "federal_income"
	TaxSocialSecurity = "social_security"
	TaxMedicare       = "medicare"
)

// Line is one itemised amount on a wage statement. Category holds the earning
// type for earnings, the tax type for taxes and the deduction category for
// deductions.
type Line struct {
	Code        string
	Description string
	Category    string
	Amount      decimal.Decimal
	YTDAmount   decimal.Decimal
}

// Statement is the read-only view of a pay stub that the engine evaluates.
// Optional values use NullDecimal so "not shown" and zero stay distinct.
type Statement struct {
	PayStubID         string
	StateJurisdiction string

	EmployeeName      string
	EmployeeSSNLast4  string
	EmployeeAddress   string
	EmployerName      string
	EmployerEIN       string
	EmployerAddress   string
	EmployerPhone     string
	EmployerUBINumber string

	PayPeriodStart time.Time
	PayPeriodEnd   time.Time
	PayDate        time.Time

	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	DoubleTimeHours decimal.Decimal
	RegularRate     decimal.Decimal
	OvertimeRate    decimal.Decimal

	GrossPay        decimal.NullDecimal
	NetPay          decimal.NullDecimal
	TotalTaxes      decimal.NullDecimal
	TotalDeductions decimal.NullDecimal

	Earnings   []Line
	Deductions []Line
	Taxes      []Line

	SickLeaveBalance decimal.NullDecimal
	PTOBalance       decimal.NullDecimal
	VacationBalance  decimal.NullDecimal

	ADACompliant bool
}

// fieldPresence answers "is this field shown on the statement" for every field
// name a rule may require.
var fieldPresence = map[string]func(s Statement) bool{
	"employee_name":        func(s Statement) bool { return s.EmployeeName != "" },
	"employee_ssn_last4":   func(s Statement) bool { return s.EmployeeSSNLast4 != "" },
	"employee_address":     func(s Statement) bool { return s.EmployeeAddress != "" },
	"employer_name":        func(s Statement) bool { return s.EmployerName != "" },
	"employer_ein":         func(s Statement) bool { return s.EmployerEIN != "" },
	"employer_address":     func(s Statement) bool { return s.EmployerAddress != "" },
	"employer_phone":       func(s Statement) bool { return s.EmployerPhone != "" },
	"employer_ubi_number":  func(s Statement) bool { return s.EmployerUBINumber != "" },
	"pay_period_start":     func(s Statement) bool { return !s.PayPeriodStart.IsZero() },
	"pay_period_end":       func(s Statement) bool { return !s.PayPeriodEnd.IsZero() },
	"pay_date":             func(s Statement) bool { return !s.PayDate.IsZero() },
	"gross_pay":            func(s Statement) bool { return s.GrossPay.Valid },
	"net_pay":              func(s Statement) bool { return s.NetPay.Valid },
	"total_taxes":          func(s Statement) bool { return s.TotalTaxes.Valid },
	"total_deductions":     func(s Statement) bool { return s.TotalDeductions.Valid },
	"earnings_breakdown":   func(s Statement) bool { return len(s.Earnings) > 0 },
	"taxes_breakdown":      func(s Statement) bool { return len(s.Taxes) > 0 },
	"deductions_breakdown": func(s Statement) bool { return len(s.Deductions) > 0 },
	"sick_leave_balance":   func(s Statement) bool { return s.SickLeaveBalance.Valid },
	"pto_balance":          func(s Statement) bool { return s.PTOBalance.Valid },
	"vacation_balance":     func(s Statement) bool { return s.VacationBalance.Valid },
	"regular_hours":        func(s Statement) bool { return s.RegularHours.IsPositive() },
	"regular_rate":         func(s Statement) bool { return s.RegularRate.IsPositive() },
}

func knownField(name string) bool {
	_, ok := fieldPresence[name]
	return ok
}

func hasField(s Statement, name string) bool {
	present, ok := fieldPresence[name]
	return ok && present(s)
}

func hasCategory(lines []Line, category string) bool {
	for _, l := range lines {
		if l.Category == category {
			return true
		}
	}
	return false
}
