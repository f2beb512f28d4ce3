package paystub

import (
	"go-paystub/internal/compliance"

	"github.com/shopspring/decimal"
)

func toComplianceLines(lines []Line) []compliance.Line {
	out := make([]compliance.Line, len(lines))
	for i, l := range lines {
		out[i] = compliance.Line{
			Code:        l.Code,
			Description: l.Description,
			Category:    l.Category,
			Amount:      l.Amount,
			YTDAmount:   l.YTDAmount,
		}
	}
	return out
}

func present(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// toStatement is the read-only view the compliance engine evaluates.
func toStatement(p *PayStub) compliance.Statement {
	stmt := compliance.Statement{
		PayStubID:         p.ID.String(),
		StateJurisdiction: p.StateJurisdiction,
		PayPeriodStart:    p.PayPeriodStart,
		PayPeriodEnd:      p.PayPeriodEnd,
		PayDate:           p.PayDate,
		RegularHours:      p.RegularHours,
		OvertimeHours:     p.OvertimeHours,
		DoubleTimeHours:   p.DoubleTimeHours,
		RegularRate:       p.RegularRate,
		OvertimeRate:      p.OvertimeRate,
		GrossPay:          present(p.GrossPay),
		NetPay:            present(p.NetPay),
		TotalTaxes:        present(p.TotalTaxes),
		TotalDeductions:   present(p.TotalDeductions),
		Earnings:          toComplianceLines(p.Earnings()),
		Deductions:        toComplianceLines(p.Deductions()),
		Taxes:             toComplianceLines(p.Taxes()),
		SickLeaveBalance:  p.SickLeaveBalance,
		PTOBalance:        p.PTOBalance,
		VacationBalance:   p.VacationBalance,
		ADACompliant:      p.Metadata.ADACompliant,
	}

	if e := p.Employee; e != nil {
		stmt.EmployeeName = e.FullName
		stmt.EmployeeSSNLast4 = e.SSNLast4
		stmt.EmployeeAddress = e.Address()
	}
	if c := p.Company; c != nil {
		stmt.EmployerName = c.DisplayName()
		stmt.EmployerEIN = c.EIN()
		stmt.EmployerAddress = c.Address()
		stmt.EmployerPhone = c.Phone
		stmt.EmployerUBINumber = c.UBINumber()
	}
	return stmt
}
