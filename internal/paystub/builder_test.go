package paystub_test

import (
	"testing"

	"go-paystub/internal/payrollperiod"
	"go-paystub/internal/paystub"
	paystuberrors "go-paystub/internal/paystub/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func buildInput(entry payrollperiod.PayrollEntry) paystub.BuildInput {
	return paystub.BuildInput{
		Period:            newPeriod(),
		Entry:             entry,
		CreatedBy:         testActorID,
		Source:            paystub.SourceBatch,
		ComplianceVersion: "2026.1",
	}
}

func TestBuildPayStub_Totals(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")

	stub, err := paystub.BuildPayStub(buildInput(newEntry(emp)))

	assert.NoError(t, err)
	assertDecimal(t, "2187.50", stub.GrossPay)
	assertDecimal(t, "100.00", stub.TotalDeductions)
	assertDecimal(t, "367.34", stub.TotalTaxes)
	assertDecimal(t, "1720.16", stub.NetPay)
	assertDecimal(t, "2187.50", stub.YTDGrossPay)
	assertDecimal(t, "1720.16", stub.YTDNetPay)

	assert.Equal(t, paystub.StatusGenerated, stub.Status)
	assert.Equal(t, "WA", stub.StateJurisdiction)
	assert.Equal(t, emp.ID, stub.EmployeeID)
	assert.Equal(t, testPeriodID, stub.PayrollPeriodID)
	assert.Equal(t, testActorID, stub.CreatedBy)
	assert.NotNil(t, stub.Company)
	assert.Equal(t, "Dana Whitfield", stub.EmployeeName())

	assert.Equal(t, 1, stub.Metadata.Revision)
	assert.Equal(t, "2026.1", stub.Metadata.ComplianceVersion)
	assert.Equal(t, paystub.SourceBatch, stub.Metadata.GenerationSource)
	assert.True(t, stub.Metadata.ADACompliant)
	assert.Nil(t, stub.Metadata.PreviousStubID)

	assert.Len(t, stub.Earnings(), 2)
	assert.Len(t, stub.Deductions(), 1)
	assert.Len(t, stub.Taxes(), 3)
	assert.Len(t, stub.EmployerContributions(), 1)
	assert.Equal(t, "REG", stub.Earnings()[0].Code)
	assertDecimal(t, "2000.00", stub.Earnings()[0].YTDAmount)

	assert.Len(t, stub.Deposits, 2)
	assertDecimal(t, "1032.10", stub.Deposits[0].Amount)
	assertDecimal(t, "688.06", stub.Deposits[1].Amount)
	assert.Equal(t, "****4321", stub.Deposits[0].MaskedAccount())
}

func TestBuildPayStub_CarriesYearToDate(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	previous := &paystub.PayStub{
		ID:            uuid.New(),
		EmployeeID:    emp.ID,
		PayDate:       date("2026-03-05"),
		YTDGrossPay:   d("2000.00"),
		YTDNetPay:     d("1500.00"),
		YTDDeductions: d("100.00"),
		YTDTaxes:      d("400.00"),
		Lines: []paystub.Line{
			{LineType: paystub.LineEarning, Code: "REG", YTDAmount: d("2000.00")},
			{LineType: paystub.LineTax, Code: "FIT", YTDAmount: d("250.00")},
		},
	}
	in := buildInput(newEntry(emp))
	in.Previous = previous

	stub, err := paystub.BuildPayStub(in)

	assert.NoError(t, err)
	assertDecimal(t, "4187.50", stub.YTDGrossPay)
	assertDecimal(t, "3220.16", stub.YTDNetPay)
	assertDecimal(t, "200.00", stub.YTDDeductions)
	assertDecimal(t, "767.34", stub.YTDTaxes)
	assert.Equal(t, previous.ID, *stub.Metadata.PreviousStubID)

	earnings := stub.Earnings()
	assertDecimal(t, "4000.00", earnings[0].YTDAmount)
	assertDecimal(t, "187.50", earnings[1].YTDAmount)
	assertDecimal(t, "450.00", stub.Taxes()[0].YTDAmount)
}

func TestBuildPayStub_IgnoresPreviousYear(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	in := buildInput(newEntry(emp))
	in.Previous = &paystub.PayStub{
		ID:          uuid.New(),
		PayDate:     date("2025-12-19"),
		YTDGrossPay: d("52000.00"),
	}

	stub, err := paystub.BuildPayStub(in)

	assert.NoError(t, err)
	assertDecimal(t, "2187.50", stub.YTDGrossPay)
	assert.Nil(t, stub.Metadata.PreviousStubID)
}

func TestBuildPayStub_LastPercentageAbsorbsRounding(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	entry := newEntry(emp)
	entry.Components = []payrollperiod.PayrollComponent{
		{ComponentType: payrollperiod.ComponentEarning, Code: "SAL", ComponentName: "Salary", TotalAmount: d("1000.01")},
	}
	entry.Deposits = []payrollperiod.DirectDeposit{
		{AccountLabel: "A", AccountLast4: "1111", Percentage: nd("50")},
		{AccountLabel: "B", AccountLast4: "2222", Percentage: nd("50")},
	}

	stub, err := paystub.BuildPayStub(buildInput(entry))

	assert.NoError(t, err)
	assertDecimal(t, "500.01", stub.Deposits[0].Amount)
	assertDecimal(t, "500.00", stub.Deposits[1].Amount)
}

func TestBuildPayStub_DefaultsAndFallbacks(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	emp.State = "or"
	entry := newEntry(emp)
	entry.StateJurisdiction = ""
	entry.Components[2].TaxTreatment = ""

	stub, err := paystub.BuildPayStub(buildInput(entry))

	assert.NoError(t, err)
	assert.Equal(t, "OR", stub.StateJurisdiction)
	assert.Equal(t, paystub.TaxTreatmentPostTax, stub.Deductions()[0].TaxTreatment)
}

func TestBuildPayStub_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *payrollperiod.PayrollEntry)
	}{
		{"missing ssn", func(e *payrollperiod.PayrollEntry) { e.Employee.SSNLast4 = "" }},
		{"malformed ssn", func(e *payrollperiod.PayrollEntry) { e.Employee.SSNLast4 = "12a4" }},
		{"missing name", func(e *payrollperiod.PayrollEntry) { e.Employee.FullName = "  " }},
		{"missing employee", func(e *payrollperiod.PayrollEntry) { e.Employee = nil }},
		{"missing state", func(e *payrollperiod.PayrollEntry) {
			e.StateJurisdiction = ""
			e.Employee.State = ""
		}},
		{"no earnings", func(e *payrollperiod.PayrollEntry) {
			e.Components = e.Components[2:]
		}},
		{"negative amount", func(e *payrollperiod.PayrollEntry) { e.Components[3].TotalAmount = d("-1") }},
		{"negative hours", func(e *payrollperiod.PayrollEntry) { e.OvertimeHours = d("-2") }},
		{"empty code", func(e *payrollperiod.PayrollEntry) { e.Components[1].Code = "" }},
		{"net below zero", func(e *payrollperiod.PayrollEntry) { e.Components[2].TotalAmount = d("3000") }},
		{"two remainder accounts", func(e *payrollperiod.PayrollEntry) { e.Deposits[0].IsRemainder = true }},
		{"percentages short of 100", func(e *payrollperiod.PayrollEntry) {
			e.Deposits = []payrollperiod.DirectDeposit{{AccountLast4: "1111", Percentage: nd("90")}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := newEntry(newEmployee("Dana Whitfield", "6789"))
			tt.mutate(&entry)

			stub, err := paystub.BuildPayStub(buildInput(entry))

			assert.Nil(t, stub)
			assert.ErrorIs(t, err, paystuberrors.ErrValidation)
		})
	}
}
