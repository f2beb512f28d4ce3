package paystub

import (
	"strings"

	"go-paystub/internal/payrollperiod"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildInput carries everything needed to assemble one stub.
type BuildInput struct {
	Period payrollperiod.PayrollPeriod
	Entry  payrollperiod.PayrollEntry
	// Previous is the stub right before this one in the employee's calendar
	// year, or nil for the first. The generator leaves it nil and chains the
	// whole year once the stub is stored.
	Previous          *PayStub
	CreatedBy         uuid.UUID
	Source            string
	ComplianceVersion string
}

// BuildPayStub validates the calculated entry and turns it into a stub with
// totals, year-to-date figures and allocated direct deposits. The result has
// no id or stub number yet.
func BuildPayStub(in BuildInput) (*PayStub, error) {
	if err := validateEntry(in.Entry); err != nil {
		return nil, err
	}

	previous := in.Previous
	if previous != nil && previous.PayDate.Year() != in.Period.PayDate.Year() {
		previous = nil
	}

	stub := &PayStub{
		CompanyID:         in.Period.CompanyID,
		EmployeeID:        in.Entry.EmployeeID,
		PayrollPeriodID:   in.Period.ID,
		Employee:          in.Entry.Employee,
		Company:           in.Period.Company,
		PayPeriodStart:    in.Period.PeriodStart,
		PayPeriodEnd:      in.Period.PeriodEnd,
		PayDate:           in.Period.PayDate,
		StateJurisdiction: entryState(in.Entry),
		RegularHours:      in.Entry.RegularHours,
		OvertimeHours:     in.Entry.OvertimeHours,
		DoubleTimeHours:   in.Entry.DoubleTimeHours,
		RegularRate:       in.Entry.RegularRate,
		OvertimeRate:      in.Entry.OvertimeRate,
		DoubleTimeRate:    in.Entry.DoubleTimeRate,
		PTOBalance:        in.Entry.PTOBalance,
		SickLeaveBalance:  in.Entry.SickLeaveBalance,
		VacationBalance:   in.Entry.VacationBalance,
		Status:            StatusGenerated,
		CreatedBy:         in.CreatedBy,
		Metadata: Metadata{
			ComplianceVersion: in.ComplianceVersion,
			ADACompliant:      true,
			GenerationSource:  in.Source,
			Revision:          1,
		},
	}
	stub.Lines = buildLines(in.Entry.Components)

	stub.GrossPay = sumAmounts(stub.Earnings())
	stub.TotalDeductions = sumAmounts(stub.Deductions())
	stub.TotalTaxes = sumAmounts(stub.Taxes())
	stub.NetPay = stub.GrossPay.Sub(stub.TotalDeductions).Sub(stub.TotalTaxes)
	if stub.NetPay.IsNegative() {
		return nil, validationError("deductions and taxes of %s exceed gross pay %s",
			stub.TotalDeductions.Add(stub.TotalTaxes).StringFixed(2), stub.GrossPay.StringFixed(2))
	}

	running := make(map[string]decimal.Decimal)
	if previous != nil {
		for _, l := range previous.Lines {
			running[lineKey(l.LineType, l.Code)] = l.YTDAmount
		}
	}
	applyYTD(stub, previous, running)

	stub.Deposits = allocateDeposits(in.Entry.Deposits, stub.NetPay)

	if err := stub.CheckInvariants(); err != nil {
		return nil, err
	}
	return stub, nil
}

func validateEntry(entry payrollperiod.PayrollEntry) error {
	emp := entry.Employee
	if emp == nil || strings.TrimSpace(emp.FullName) == "" {
		return validationError("employee name is required")
	}
	if !isDigits(strings.TrimSpace(emp.SSNLast4), 4) {
		return validationError("employee SSN last four digits are required")
	}
	if len(entryState(entry)) != 2 {
		return validationError("state jurisdiction is required")
	}
	if len(entry.ComponentsOfType(payrollperiod.ComponentEarning)) == 0 {
		return validationError("at least one earning line is required")
	}
	for _, h := range []decimal.Decimal{entry.RegularHours, entry.OvertimeHours, entry.DoubleTimeHours} {
		if h.IsNegative() {
			return validationError("hours cannot be negative")
		}
	}
	for _, c := range entry.Components {
		if c.TotalAmount.IsNegative() {
			return validationError("%s line %q cannot be negative", c.ComponentType, c.Code)
		}
		if strings.TrimSpace(c.Code) == "" {
			return validationError("%s line code is required", c.ComponentType)
		}
	}
	return nil
}

func entryState(entry payrollperiod.PayrollEntry) string {
	state := strings.TrimSpace(entry.StateJurisdiction)
	if state == "" && entry.Employee != nil {
		state = strings.TrimSpace(entry.Employee.State)
	}
	return strings.ToUpper(state)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func lineKey(lineType, code string) string {
	return lineType + ":" + code
}

// buildLines copies the entry components. Line-level YTD is filled in by
// applyYTD.
func buildLines(components []payrollperiod.PayrollComponent) []Line {
	lines := make([]Line, 0, len(components))
	for i, c := range components {
		amount := c.TotalAmount.Round(2)
		line := Line{
			LineType:     c.ComponentType,
			Position:     i,
			Code:         c.Code,
			Description:  c.ComponentName,
			Category:     c.Category,
			TaxTreatment: c.TaxTreatment,
			Hours:        c.Hours,
			Rate:         c.Rate,
			Amount:       amount,
		}
		if line.LineType == LineDeduction && line.TaxTreatment == "" {
			line.TaxTreatment = TaxTreatmentPostTax
		}
		lines = append(lines, line)
	}
	return lines
}

// allocateDeposits turns percentages into amounts of net pay. The remainder
// account takes whatever is left; without one, the last percentage account
// absorbs rounding.
func allocateDeposits(src []payrollperiod.DirectDeposit, net decimal.Decimal) []Deposit {
	if len(src) == 0 {
		return nil
	}

	deposits := make([]Deposit, len(src))
	allocated := decimal.Zero
	remainderIdx, lastPctIdx := -1, -1
	for i, d := range src {
		deposits[i] = Deposit{
			Position:     i,
			AccountLabel: d.AccountLabel,
			AccountLast4: d.AccountLast4,
			RoutingLast4: d.RoutingLast4,
			Percentage:   d.Percentage,
			Amount:       d.Amount.Round(2),
			IsRemainder:  d.IsRemainder,
		}
		if d.IsRemainder {
			remainderIdx = i
			continue
		}
		if d.Percentage.Valid {
			deposits[i].Amount = net.Mul(d.Percentage.Decimal).Div(hundred).Round(2)
			lastPctIdx = i
		}
		allocated = allocated.Add(deposits[i].Amount)
	}

	switch {
	case remainderIdx >= 0:
		rest := net.Sub(allocated)
		if rest.IsNegative() {
			rest = decimal.Zero
		}
		deposits[remainderIdx].Amount = rest
	case lastPctIdx >= 0 && !allocated.Equal(net):
		deposits[lastPctIdx].Amount = deposits[lastPctIdx].Amount.Add(net.Sub(allocated))
	}
	return deposits
}
