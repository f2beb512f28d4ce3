package paystub_test

import (
	"context"
	"testing"

	"go-paystub/internal/employee"
	"go-paystub/internal/payrollperiod"
	"go-paystub/internal/paystub"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func periodPaidOn(name, start, end, payDate string) payrollperiod.PayrollPeriod {
	p := newPeriod()
	p.ID = uuid.New()
	p.Name = name
	p.PeriodStart = date(start)
	p.PeriodEnd = date(end)
	p.PayDate = date(payDate)
	return p
}

func entryIn(emp *employee.Employee, period payrollperiod.PayrollPeriod) payrollperiod.PayrollEntry {
	entry := newEntry(emp)
	entry.PayrollPeriodID = period.ID
	return entry
}

func generateFor(t *testing.T, deps generatorDeps, period payrollperiod.PayrollPeriod, emp *employee.Employee) *paystub.PayStub {
	t.Helper()
	result, err := deps.gen.Generate(context.Background(), testCompanyID.String(), testActorID.String(),
		paystub.GeneratePayStubsRequest{
			PayrollPeriodID: period.ID.String(),
			EmployeeIDs:     []string{emp.ID.String()},
		}, paystub.SourceBatch)
	if !assert.NoError(t, err) || !assert.Equal(t, 1, result.GeneratedCount, "errors: %+v", result.Errors) {
		t.FailNow()
	}
	return deps.repo.get(uuid.MustParse(result.PayStubIDs[0]))
}

func lineYTD(t *testing.T, stub *paystub.PayStub, code string) string {
	t.Helper()
	for _, l := range stub.Lines {
		if l.Code == code {
			return l.YTDAmount.StringFixed(2)
		}
	}
	t.Fatalf("line %s not on stub %s", code, stub.StubNumber)
	return ""
}

func TestGenerator_YTD_RegeneratedEarlierStubFlowsIntoLaterStubs(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	deps := setupGeneratorTest()
	jan := periodPaidOn("2026-01 A", "2026-01-01", "2026-01-15", "2026-01-20")
	feb := periodPaidOn("2026-02 A", "2026-02-01", "2026-02-15", "2026-02-20")
	deps.periods.addPeriod(jan, entryIn(emp, jan))
	deps.periods.addPeriod(feb, entryIn(emp, feb))

	janStub := generateFor(t, deps, jan, emp)
	febStub := generateFor(t, deps, feb, emp)
	assertDecimal(t, "4375.00", febStub.YTDGrossPay)

	// January's regular pay is corrected from 2000.00 to 6000.00
	corrected := entryIn(emp, jan)
	corrected.Components[0].TotalAmount = d("6000.00")
	deps.periods.setEntry(corrected)

	rebuilt, err := deps.gen.Regenerate(context.Background(), testCompanyID.String(), testActorID.String(), janStub.ID.String())
	if !assert.NoError(t, err) {
		return
	}
	assertDecimal(t, "6187.50", rebuilt.YTDGrossPay)

	febStub = deps.repo.get(febStub.ID)
	assertDecimal(t, "8375.00", febStub.YTDGrossPay)
	assertDecimal(t, "7440.32", febStub.YTDNetPay)
	assertDecimal(t, "200.00", febStub.YTDDeductions)
	assertDecimal(t, "734.68", febStub.YTDTaxes)
	assert.Equal(t, "8000.00", lineYTD(t, febStub, "REG"))
	if assert.NotNil(t, febStub.Metadata.PreviousStubID) {
		assert.Equal(t, janStub.ID, *febStub.Metadata.PreviousStubID)
	}
	assert.True(t, febStub.YTDGrossPay.GreaterThanOrEqual(rebuilt.YTDGrossPay))
}

func TestGenerator_YTD_BackfilledEarlierPeriodUpdatesLaterStub(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	deps := setupGeneratorTest()
	jan := periodPaidOn("2026-01 A", "2026-01-01", "2026-01-15", "2026-01-20")
	feb := periodPaidOn("2026-02 A", "2026-02-01", "2026-02-15", "2026-02-20")
	deps.periods.addPeriod(jan, entryIn(emp, jan))
	deps.periods.addPeriod(feb, entryIn(emp, feb))

	febStub := generateFor(t, deps, feb, emp)
	assertDecimal(t, "2187.50", febStub.YTDGrossPay)
	assert.Nil(t, febStub.Metadata.PreviousStubID)

	janStub := generateFor(t, deps, jan, emp)
	assertDecimal(t, "2187.50", janStub.YTDGrossPay)
	assert.Nil(t, janStub.Metadata.PreviousStubID)

	febStub = deps.repo.get(febStub.ID)
	assertDecimal(t, "4375.00", febStub.YTDGrossPay)
	assertDecimal(t, "3440.32", febStub.YTDNetPay)
	assert.Equal(t, "4000.00", lineYTD(t, febStub, "REG"))
	if assert.NotNil(t, febStub.Metadata.PreviousStubID) {
		assert.Equal(t, janStub.ID, *febStub.Metadata.PreviousStubID)
	}
}

func TestGenerator_YTD_SamePayDateStubsChain(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	deps := setupGeneratorTest()
	regular := periodPaidOn("2026-02 A", "2026-02-01", "2026-02-15", "2026-02-20")
	bonus := periodPaidOn("2026-02 bonus", "2026-02-01", "2026-02-15", "2026-02-20")
	deps.periods.addPeriod(regular, entryIn(emp, regular))
	deps.periods.addPeriod(bonus, entryIn(emp, bonus))
	deps.periods.setEntry(entryIn(emp, newPeriod()))

	first := generateFor(t, deps, regular, emp)
	second := generateFor(t, deps, bonus, emp)
	march := generateFor(t, deps, newPeriod(), emp)

	assertDecimal(t, "2187.50", first.YTDGrossPay)
	assertDecimal(t, "4375.00", second.YTDGrossPay)
	if assert.NotNil(t, second.Metadata.PreviousStubID) {
		assert.Equal(t, first.ID, *second.Metadata.PreviousStubID)
	}

	assertDecimal(t, "6562.50", march.YTDGrossPay)
	assertDecimal(t, "1102.02", march.YTDTaxes)
	assert.Equal(t, "6000.00", lineYTD(t, march, "REG"))
	if assert.NotNil(t, march.Metadata.PreviousStubID) {
		assert.Equal(t, second.ID, *march.Metadata.PreviousStubID)
	}
}

func TestGenerator_YTD_UnchangedChainIsNotRewritten(t *testing.T) {
	emp := newEmployee("Dana Whitfield", "6789")
	deps := setupGeneratorTest()
	jan := periodPaidOn("2026-01 A", "2026-01-01", "2026-01-15", "2026-01-20")
	deps.periods.addPeriod(jan, entryIn(emp, jan))
	deps.periods.setEntry(entryIn(emp, newPeriod()))

	generateFor(t, deps, jan, emp)
	generateFor(t, deps, newPeriod(), emp)

	// appending at the end of the year only rewrites the new stub
	assert.Equal(t, 1, deps.repo.ytdWrites)
}
