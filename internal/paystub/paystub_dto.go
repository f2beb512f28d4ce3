package paystub

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type GeneratePayStubsRequest struct {
	PayrollPeriodID  string   `json:"payroll_period_id" binding:"required,uuid"`
	EmployeeIDs      []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
	GeneratePDF      bool     `json:"generate_pdf"`
	EmailToEmployees bool     `json:"email_to_employees"`
}

// GenerationError describes why one employee's stub was not fully produced.
// PayStubID is set when the stub was stored before the failure.
type GenerationError struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	ErrorCode    string  `json:"error_code"`
	ErrorMessage string  `json:"error_message"`
	PayStubID    *string `json:"pay_stub_id,omitempty"`
}

func (e GenerationError) Error() string {
	return e.ErrorCode + ": " + e.ErrorMessage
}

type GenerateResult struct {
	Success        bool              `json:"success"`
	GeneratedCount int               `json:"generated_count"`
	FailedCount    int               `json:"failed_count"`
	PayStubIDs     []string          `json:"pay_stub_ids"`
	Errors         []GenerationError `json:"errors"`
}

type QueuedGenerationResponse struct {
	RequestID       string `json:"request_id"`
	PayrollPeriodID string `json:"payroll_period_id"`
	Status          string `json:"status"`
}

type SearchPayStubsRequest struct {
	EmployeeName      string `form:"employee_name"`
	EmployeeID        string `form:"employee_id" binding:"omitempty,uuid"`
	PayDateStart      string `form:"pay_date_start"`
	PayDateEnd        string `form:"pay_date_end"`
	Status            string `form:"status"`
	MinAmount         string `form:"min_amount"`
	MaxAmount         string `form:"max_amount"`
	StateJurisdiction string `form:"state_jurisdiction" binding:"omitempty,len=2,alpha"`
	StubNumber        string `form:"stub_number"`
}

type MetricsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type MetricsResponse struct {
	TotalGenerated     int64           `json:"total_generated"`
	TotalDownloaded    int64           `json:"total_downloaded"`
	TotalViewed        int64           `json:"total_viewed"`
	AverageGrossPay    decimal.Decimal `json:"average_gross_pay"`
	TotalPayrollAmount decimal.Decimal `json:"total_payroll_amount"`
	EmployeeCount      int64           `json:"employee_count"`
}

type BatchOptions struct {
	StateCode string `json:"state_code" binding:"omitempty,len=2,alpha"`
}

type BatchRequest struct {
	Operation  string       `json:"operation" binding:"required"`
	PayStubIDs []string     `json:"pay_stub_ids"`
	Options    BatchOptions `json:"options"`
}

type BatchItemResult struct {
	PayStubID    string `json:"pay_stub_id"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type BatchResult struct {
	Operation string            `json:"operation"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []BatchItemResult `json:"results"`
}

type DownloadLink struct {
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
}

type DownloadResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

type EmployeeSummary struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	MaskedSSN string `json:"masked_ssn"`
	Address   string `json:"address"`
}

type EmployerSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	EIN       string `json:"ein"`
	Address   string `json:"address"`
	Phone     string `json:"phone,omitempty"`
	UBINumber string `json:"ubi_number,omitempty"`
}

type LineResponse struct {
	Code         string           `json:"code"`
	Description  string           `json:"description"`
	Category     string           `json:"category,omitempty"`
	TaxTreatment string           `json:"tax_treatment,omitempty"`
	Hours        *decimal.Decimal `json:"hours,omitempty"`
	Rate         *decimal.Decimal `json:"rate,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
	YTDAmount    decimal.Decimal  `json:"ytd_amount"`
}

type DepositResponse struct {
	AccountLabel  string           `json:"account_label"`
	AccountNumber string           `json:"account_number"`
	RoutingLast4  string           `json:"routing_last4"`
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	IsRemainder   bool             `json:"is_remainder"`
}

type MetadataResponse struct {
	ComplianceVersion string  `json:"compliance_version"`
	ADACompliant      bool    `json:"ada_compliant"`
	GenerationSource  string  `json:"generation_source"`
	PreviousStubID    *string `json:"previous_stub_id,omitempty"`
	Revision          int     `json:"revision"`
	RegeneratedAt     *string `json:"regenerated_at,omitempty"`
}

type PayStubResponse struct {
	ID                string          `json:"id"`
	StubNumber        string          `json:"stub_number"`
	PayrollPeriodID   string          `json:"payroll_period_id"`
	Employee          EmployeeSummary `json:"employee"`
	Employer          EmployerSummary `json:"employer"`
	PayPeriodStart    string          `json:"pay_period_start"`
	PayPeriodEnd      string          `json:"pay_period_end"`
	PayDate           string          `json:"pay_date"`
	StateJurisdiction string          `json:"state_jurisdiction"`

	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal `json:"double_time_hours"`
	RegularRate     decimal.Decimal `json:"regular_rate"`
	OvertimeRate    decimal.Decimal `json:"overtime_rate"`
	DoubleTimeRate  decimal.Decimal `json:"double_time_rate"`

	GrossPay        decimal.Decimal `json:"gross_pay"`
	NetPay          decimal.Decimal `json:"net_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalTaxes      decimal.Decimal `json:"total_taxes"`
	YTDGrossPay     decimal.Decimal `json:"ytd_gross_pay"`
	YTDNetPay       decimal.Decimal `json:"ytd_net_pay"`
	YTDDeductions   decimal.Decimal `json:"ytd_deductions"`
	YTDTaxes        decimal.Decimal `json:"ytd_taxes"`

	Earnings              []LineResponse    `json:"earnings"`
	Deductions            []LineResponse    `json:"deductions"`
	Taxes                 []LineResponse    `json:"taxes"`
	EmployerContributions []LineResponse    `json:"employer_contributions"`
	DirectDeposits        []DepositResponse `json:"direct_deposits"`

	PTOBalance       *decimal.Decimal `json:"pto_balance"`
	SickLeaveBalance *decimal.Decimal `json:"sick_leave_balance"`
	VacationBalance  *decimal.Decimal `json:"vacation_balance"`

	Status         string           `json:"status"`
	Metadata       MetadataResponse `json:"metadata"`
	HasPDF         bool             `json:"has_pdf"`
	PDFGeneratedAt *string          `json:"pdf_generated_at,omitempty"`
	EmailedAt      *string          `json:"emailed_at,omitempty"`
	ViewedAt       *string          `json:"viewed_at,omitempty"`
	LastError      *string          `json:"last_error,omitempty"`
	CreatedBy      string           `json:"created_by"`
	CreatedAt      string           `json:"created_at"`
}

func nullDecimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func mapLines(lines []Line) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = LineResponse{
			Code:         l.Code,
			Description:  l.Description,
			Category:     l.Category,
			TaxTreatment: l.TaxTreatment,
			Hours:        nullDecimalPtr(l.Hours),
			Rate:         nullDecimalPtr(l.Rate),
			Amount:       l.Amount,
			YTDAmount:    l.YTDAmount,
		}
	}
	return out
}

func mapToResponse(p PayStub) PayStubResponse {
	resp := PayStubResponse{
		ID:                p.ID.String(),
		StubNumber:        p.StubNumber,
		PayrollPeriodID:   p.PayrollPeriodID.String(),
		PayPeriodStart:    p.PayPeriodStart.Format(dateLayout),
		PayPeriodEnd:      p.PayPeriodEnd.Format(dateLayout),
		PayDate:           p.PayDate.Format(dateLayout),
		StateJurisdiction: p.StateJurisdiction,

		RegularHours:    p.RegularHours,
		OvertimeHours:   p.OvertimeHours,
		DoubleTimeHours: p.DoubleTimeHours,
		RegularRate:     p.RegularRate,
		OvertimeRate:    p.OvertimeRate,
		DoubleTimeRate:  p.DoubleTimeRate,

		GrossPay:        p.GrossPay,
		NetPay:          p.NetPay,
		TotalDeductions: p.TotalDeductions,
		TotalTaxes:      p.TotalTaxes,
		YTDGrossPay:     p.YTDGrossPay,
		YTDNetPay:       p.YTDNetPay,
		YTDDeductions:   p.YTDDeductions,
		YTDTaxes:        p.YTDTaxes,

		Earnings:              mapLines(p.Earnings()),
		Deductions:            mapLines(p.Deductions()),
		Taxes:                 mapLines(p.Taxes()),
		EmployerContributions: mapLines(p.EmployerContributions()),
		DirectDeposits:        make([]DepositResponse, len(p.Deposits)),

		PTOBalance:       nullDecimalPtr(p.PTOBalance),
		SickLeaveBalance: nullDecimalPtr(p.SickLeaveBalance),
		VacationBalance:  nullDecimalPtr(p.VacationBalance),

		Status: p.Status,
		Metadata: MetadataResponse{
			ComplianceVersion: p.Metadata.ComplianceVersion,
			ADACompliant:      p.Metadata.ADACompliant,
			GenerationSource:  p.Metadata.GenerationSource,
			Revision:          p.Metadata.Revision,
			RegeneratedAt:     timePtr(p.Metadata.RegeneratedAt),
		},
		HasPDF:         p.HasPDF(),
		PDFGeneratedAt: timePtr(p.PDFGeneratedAt),
		EmailedAt:      timePtr(p.EmailedAt),
		ViewedAt:       timePtr(p.ViewedAt),
		LastError:      p.LastError,
		CreatedBy:      p.CreatedBy.String(),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}

	if p.Metadata.PreviousStubID != nil {
		v := p.Metadata.PreviousStubID.String()
		resp.Metadata.PreviousStubID = &v
	}

	resp.Employee.ID = p.EmployeeID.String()
	if p.Employee != nil {
		resp.Employee.FullName = p.Employee.FullName
		resp.Employee.MaskedSSN = p.Employee.MaskedSSN()
		resp.Employee.Address = p.Employee.Address()
	}
	resp.Employer.ID = p.CompanyID.String()
	if p.Company != nil {
		resp.Employer.Name = p.Company.DisplayName()
		resp.Employer.EIN = p.Company.EIN()
		resp.Employer.Address = p.Company.Address()
		resp.Employer.Phone = p.Company.Phone
		resp.Employer.UBINumber = p.Company.UBINumber()
	}

	for i, d := range p.Deposits {
		resp.DirectDeposits[i] = DepositResponse{
			AccountLabel:  d.AccountLabel,
			AccountNumber: d.MaskedAccount(),
			RoutingLast4:  d.RoutingLast4,
			Percentage:    nullDecimalPtr(d.Percentage),
			Amount:        d.Amount,
			IsRemainder:   d.IsRemainder,
		}
	}

	return resp
}

func mapToListResponse(stubs []PayStub) []PayStubResponse {
	resp := make([]PayStubResponse, len(stubs))
	for i, stub := range stubs {
		resp[i] = mapToResponse(stub)
	}
	return resp
}
