package paystub

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// applyYTD sets stub's year-to-date figures to its own amounts plus those of
// previous, the stub right before it in the employee's year. running holds
// the line-level year-to-date per line type and code so far and is advanced
// past stub.
func applyYTD(stub, previous *PayStub, running map[string]decimal.Decimal) {
	stub.YTDGrossPay = stub.GrossPay
	stub.YTDNetPay = stub.NetPay
	stub.YTDDeductions = stub.TotalDeductions
	stub.YTDTaxes = stub.TotalTaxes
	stub.Metadata.PreviousStubID = nil
	if previous != nil {
		id := previous.ID
		stub.Metadata.PreviousStubID = &id
		stub.YTDGrossPay = stub.YTDGrossPay.Add(previous.YTDGrossPay)
		stub.YTDNetPay = stub.YTDNetPay.Add(previous.YTDNetPay)
		stub.YTDDeductions = stub.YTDDeductions.Add(previous.YTDDeductions)
		stub.YTDTaxes = stub.YTDTaxes.Add(previous.YTDTaxes)
	}

	for i := range stub.Lines {
		l := &stub.Lines[i]
		l.YTDAmount = l.Amount.Add(running[lineKey(l.LineType, l.Code)])
	}
	for _, l := range stub.Lines {
		running[lineKey(l.LineType, l.Code)] = l.YTDAmount
	}
}

// sortYTDChain orders one employee's stubs of a year the way their
// year-to-date figures accumulate. Stubs sharing a pay date chain in creation
// order, then by stub number.
func sortYTDChain(stubs []PayStub) {
	sort.SliceStable(stubs, func(i, j int) bool {
		a, b := stubs[i], stubs[j]
		if !a.PayDate.Equal(b.PayDate) {
			return a.PayDate.Before(b.PayDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.StubNumber < b.StubNumber
	})
}

// chainYTD recomputes the year-to-date figures along stubs, which must be one
// employee's stubs of one calendar year. It sorts stubs in place and returns
// the indexes whose figures changed.
func chainYTD(stubs []PayStub) []int {
	sortYTDChain(stubs)

	running := make(map[string]decimal.Decimal)
	var changed []int
	var previous *PayStub
	for i := range stubs {
		before := ytdFingerprint(&stubs[i])
		applyYTD(&stubs[i], previous, running)
		if ytdFingerprint(&stubs[i]) != before {
			changed = append(changed, i)
		}
		previous = &stubs[i]
	}
	return changed
}

// copyYTD moves the year-to-date figures of src onto dst, the same stub as
// held by the caller. Lines are matched by position.
func copyYTD(dst, src *PayStub) {
	dst.YTDGrossPay = src.YTDGrossPay
	dst.YTDNetPay = src.YTDNetPay
	dst.YTDDeductions = src.YTDDeductions
	dst.YTDTaxes = src.YTDTaxes
	dst.Metadata.PreviousStubID = src.Metadata.PreviousStubID

	byPosition := make(map[int]decimal.Decimal, len(src.Lines))
	for _, l := range src.Lines {
		byPosition[l.Position] = l.YTDAmount
	}
	for i := range dst.Lines {
		if ytd, ok := byPosition[dst.Lines[i].Position]; ok {
			dst.Lines[i].YTDAmount = ytd
		}
	}
}

func ytdFingerprint(stub *PayStub) string {
	var b strings.Builder
	for _, d := range []decimal.Decimal{stub.YTDGrossPay, stub.YTDNetPay, stub.YTDDeductions, stub.YTDTaxes} {
		b.WriteString(d.StringFixed(2))
		b.WriteByte('|')
	}
	if stub.Metadata.PreviousStubID != nil {
		b.WriteString(stub.Metadata.PreviousStubID.String())
	}
	for _, l := range stub.Lines {
		b.WriteByte('|')
		b.WriteString(l.YTDAmount.StringFixed(2))
	}
	return b.String()
}
