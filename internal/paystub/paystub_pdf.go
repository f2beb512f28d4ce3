package paystub

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

type Renderer interface {
	// Render produces the stub's PDF and returns where it was stored.
	Render(ctx context.Context, stub *PayStub) (string, error)
	Open(ctx context.Context, path string) ([]byte, error)
}

// FileRenderer writes single-page PDFs under a local directory, one folder
// per company.
type FileRenderer struct {
	dir string
}

func NewFileRenderer(dir string) *FileRenderer {
	return &FileRenderer{dir: dir}
}

func (r *FileRenderer) Render(ctx context.Context, stub *PayStub) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := buildSimplePayStubPDF(payStubTextLines(stub))
	if err != nil {
		return "", err
	}

	dir := filepath.Join(r.dir, stub.CompanyID.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-r%d.pdf", stub.StubNumber, stub.Metadata.Revision))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", err
	}
	return path, nil
}

func (r *FileRenderer) Open(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("pdf path %q is outside the storage directory", path)
	}
	return os.ReadFile(path)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func payStubTextLines(stub *PayStub) []string {
	lines := []string{
		"EARNINGS STATEMENT " + stub.StubNumber,
	}
	if c := stub.Company; c != nil {
		lines = append(lines, c.DisplayName(), c.Address())
		if ein := c.EIN(); ein != "" {
			lines = append(lines, "EIN: "+ein)
		}
		if c.Phone != "" {
			lines = append(lines, "Phone: "+c.Phone)
		}
		if ubi := c.UBINumber(); ubi != "" {
			lines = append(lines, "UBI: "+ubi)
		}
	}
	if e := stub.Employee; e != nil {
		lines = append(lines, "", "Employee: "+e.FullName, "SSN: "+e.MaskedSSN(), e.Address())
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Pay period: %s to %s", stub.PayPeriodStart.Format(dateLayout), stub.PayPeriodEnd.Format(dateLayout)),
		"Pay date: "+stub.PayDate.Format(dateLayout),
		"State: "+stub.StateJurisdiction,
	)

	section := func(title string, items []Line) {
		if len(items) == 0 {
			return
		}
		lines = append(lines, "", title)
		for _, l := range items {
			text := fmt.Sprintf("  %s %s  %s  YTD %s", l.Code, l.Description, money(l.Amount), money(l.YTDAmount))
			if l.Hours.Valid && l.Rate.Valid {
				text = fmt.Sprintf("  %s %s  %s h @ %s  %s  YTD %s",
					l.Code, l.Description, l.Hours.Decimal.StringFixed(2), money(l.Rate.Decimal), money(l.Amount), money(l.YTDAmount))
			}
			lines = append(lines, text)
		}
	}
	section("Earnings", stub.Earnings())
	section("Deductions", stub.Deductions())
	section("Taxes", stub.Taxes())
	section("Employer contributions", stub.EmployerContributions())

	lines = append(lines,
		"",
		fmt.Sprintf("Gross pay %s  YTD %s", money(stub.GrossPay), money(stub.YTDGrossPay)),
		fmt.Sprintf("Deductions %s  YTD %s", money(stub.TotalDeductions), money(stub.YTDDeductions)),
		fmt.Sprintf("Taxes %s  YTD %s", money(stub.TotalTaxes), money(stub.YTDTaxes)),
		fmt.Sprintf("Net pay %s  YTD %s", money(stub.NetPay), money(stub.YTDNetPay)),
	)

	balances := []struct {
		label string
		value decimal.NullDecimal
	}{
		{"PTO balance", stub.PTOBalance},
		{"Sick leave balance", stub.SickLeaveBalance},
		{"Vacation balance", stub.VacationBalance},
	}
	for _, b := range balances {
		if b.value.Valid {
			lines = append(lines, fmt.Sprintf("%s: %s h", b.label, b.value.Decimal.StringFixed(2)))
		}
	}

	for _, d := range stub.Deposits {
		lines = append(lines, fmt.Sprintf("Deposit %s %s: %s", d.AccountLabel, d.MaskedAccount(), money(d.Amount)))
	}
	return lines
}

func buildSimplePayStubPDF(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		lines = []string{"Pay stub"}
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 10 Tf\n14 TL\n50 800 Td\n")
	for i, line := range lines {
		escaped := pdfEscape(line)
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", escaped))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", escaped))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R /Lang (en-US) /MarkInfo << /Marked true >> >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects)+1)
	offsets = append(offsets, 0)

	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(offsets); i++ {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets), xrefStart))

	return out.Bytes(), nil
}

func pdfEscape(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return replacer.Replace(v)
}
