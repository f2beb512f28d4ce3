package paystub_test

import (
	"testing"

	"go-paystub/internal/paystub"
	paystuberrors "go-paystub/internal/paystub/errors"

	"github.com/stretchr/testify/assert"
)

func builtStub(t *testing.T) *paystub.PayStub {
	t.Helper()
	stub, err := paystub.BuildPayStub(buildInput(newEntry(newEmployee("Dana Whitfield", "6789"))))
	assert.NoError(t, err)
	return stub
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *paystub.PayStub)
		wantErr bool
	}{
		{"built stub is consistent", func(p *paystub.PayStub) {}, false},
		{"gross differs from earnings", func(p *paystub.PayStub) { p.GrossPay = d("2000.00") }, true},
		{"deductions differ from lines", func(p *paystub.PayStub) { p.TotalDeductions = d("90.00") }, true},
		{"taxes differ from lines", func(p *paystub.PayStub) { p.TotalTaxes = d("0") }, true},
		{"net is not gross minus withholding", func(p *paystub.PayStub) { p.NetPay = d("1720.15") }, true},
		{"period start after end", func(p *paystub.PayStub) { p.PayPeriodStart = date("2026-03-16") }, true},
		{"pay date before period end", func(p *paystub.PayStub) { p.PayDate = date("2026-03-14") }, true},
		{"pay date on period end", func(p *paystub.PayStub) { p.PayDate = p.PayPeriodEnd }, false},
		{"percentages over 100 with remainder", func(p *paystub.PayStub) { p.Deposits[0].Percentage = nd("101") }, true},
		{"negative percentage", func(p *paystub.PayStub) { p.Deposits[0].Percentage = nd("-5") }, true},
		{"no deposits", func(p *paystub.PayStub) { p.Deposits = nil }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := builtStub(t)
			tt.mutate(stub)

			err := stub.CheckInvariants()

			if tt.wantErr {
				assert.ErrorIs(t, err, paystuberrors.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{paystub.StatusGenerated, paystub.StatusPDFReady, true},
		{paystub.StatusGenerated, paystub.StatusEmailed, true},
		{paystub.StatusGenerated, paystub.StatusViewed, true},
		{paystub.StatusPDFReady, paystub.StatusEmailed, true},
		{paystub.StatusEmailed, paystub.StatusViewed, true},
		{paystub.StatusViewed, paystub.StatusEmailed, false},
		{paystub.StatusEmailed, paystub.StatusPDFReady, false},
		{paystub.StatusPDFReady, paystub.StatusGenerated, false},
		{paystub.StatusViewed, paystub.StatusError, true},
		{paystub.StatusGenerated, paystub.StatusError, true},
		{paystub.StatusError, paystub.StatusPDFReady, false},
		{paystub.StatusError, paystub.StatusGenerated, false},
		{"archived", paystub.StatusViewed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, paystub.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, paystub.IsValidStatus(paystub.StatusError))
	assert.True(t, paystub.IsValidStatus(paystub.StatusViewed))
	assert.False(t, paystub.IsValidStatus("draft"))
}
