package paystub

import (
	"fmt"

	paystuberrors "go-paystub/internal/paystub/errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func validationError(format string, args ...any) error {
	return paystuberrors.ErrValidation.WithCause(fmt.Errorf(format, args...))
}

func sumAmounts(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}

// CheckInvariants returns a validation error naming the first broken rule.
func (p *PayStub) CheckInvariants() error {
	if p.PayPeriodStart.After(p.PayPeriodEnd) {
		return validationError("pay period start %s is after period end %s",
			p.PayPeriodStart.Format(dateLayout), p.PayPeriodEnd.Format(dateLayout))
	}
	if p.PayDate.Before(p.PayPeriodEnd) {
		return validationError("pay date %s is before period end %s",
			p.PayDate.Format(dateLayout), p.PayPeriodEnd.Format(dateLayout))
	}

	earnings := sumAmounts(p.Earnings())
	if !p.GrossPay.Equal(earnings) {
		return validationError("gross pay %s does not equal the sum of earnings %s",
			p.GrossPay.StringFixed(2), earnings.StringFixed(2))
	}

	deductions := sumAmounts(p.Deductions())
	taxes := sumAmounts(p.Taxes())
	if !p.TotalDeductions.Equal(deductions) {
		return validationError("total deductions %s do not equal the sum of deduction lines %s",
			p.TotalDeductions.StringFixed(2), deductions.StringFixed(2))
	}
	if !p.TotalTaxes.Equal(taxes) {
		return validationError("total taxes %s do not equal the sum of tax lines %s",
			p.TotalTaxes.StringFixed(2), taxes.StringFixed(2))
	}
	expectedNet := p.GrossPay.Sub(deductions).Sub(taxes)
	if !p.NetPay.Equal(expectedNet) {
		return validationError("net pay %s does not equal gross minus deductions and taxes %s",
			p.NetPay.StringFixed(2), expectedNet.StringFixed(2))
	}

	return checkDeposits(p.Deposits)
}

// checkDeposits requires either exactly one remainder account or
// percentages that add up to 100.
func checkDeposits(deposits []Deposit) error {
	if len(deposits) == 0 {
		return nil
	}

	remainders := 0
	percent := decimal.Zero
	for _, d := range deposits {
		if d.IsRemainder {
			remainders++
		}
		if d.Percentage.Valid {
			if d.Percentage.Decimal.IsNegative() {
				return validationError("direct deposit percentage cannot be negative")
			}
			percent = percent.Add(d.Percentage.Decimal)
		}
	}

	switch {
	case remainders > 1:
		return validationError("direct deposit has %d remainder accounts, expected at most one", remainders)
	case remainders == 1:
		if percent.GreaterThan(hundred) {
			return validationError("direct deposit percentages add up to %s, more than 100", percent.String())
		}
		return nil
	case !percent.Equal(hundred):
		return validationError("direct deposit percentages add up to %s, expected 100", percent.String())
	}
	return nil
}
