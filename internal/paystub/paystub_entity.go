package paystub

import (
	"sort"
	"time"

	"go-paystub/internal/company"
	"go-paystub/internal/employee"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusGenerated = "generated"
	StatusPDFReady  = "pdf_ready"
	StatusEmailed   = "emailed"
	StatusViewed    = "viewed"
	StatusError     = "error"
)

const (
	LineEarning              = "earning"
	LineDeduction            = "deduction"
	LineTax                  = "tax"
	LineEmployerContribution = "employer_contribution"
)

const (
	TaxTreatmentPreTax  = "pre_tax"
	TaxTreatmentPostTax = "post_tax"
)

const (
	DeductionVoluntary    = "voluntary"
	DeductionMandatory    = "mandatory"
	DeductionCourtOrdered = "court_ordered"
)

const (
	SourceBatch      = "batch"
	SourceAsync      = "async"
	SourceRegenerate = "regenerate"
)

type PayStub struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StubNumber      string             `gorm:"type:varchar(32);not null;index:idx_pay_stub_company_number,unique"`
	CompanyID       uuid.UUID          `gorm:"type:uuid;not null;index:idx_pay_stub_company_number,unique;index:idx_pay_stub_company_pay_date"`
	EmployeeID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_pay_stub_employee_period"`
	PayrollPeriodID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:uq_pay_stub_employee_period"`
	Employee        *employee.Employee `gorm:"foreignKey:EmployeeID;references:ID"`
	Company         *company.Company   `gorm:"foreignKey:CompanyID;references:ID"`

	PayPeriodStart    time.Time `gorm:"type:date;not null"`
	PayPeriodEnd      time.Time `gorm:"type:date;not null"`
	PayDate           time.Time `gorm:"type:date;not null;index:idx_pay_stub_company_pay_date"`
	StateJurisdiction string    `gorm:"type:char(2);not null;index"`

	RegularHours    decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	OvertimeHours   decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	DoubleTimeHours decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	RegularRate     decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	OvertimeRate    decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	DoubleTimeRate  decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`

	GrossPay        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	NetPay          decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TotalTaxes      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	YTDGrossPay     decimal.Decimal `gorm:"column:ytd_gross_pay;type:numeric(14,2);not null;default:0"`
	YTDNetPay       decimal.Decimal `gorm:"column:ytd_net_pay;type:numeric(14,2);not null;default:0"`
	YTDDeductions   decimal.Decimal `gorm:"column:ytd_deductions;type:numeric(14,2);not null;default:0"`
	YTDTaxes        decimal.Decimal `gorm:"column:ytd_taxes;type:numeric(14,2);not null;default:0"`

	PTOBalance       decimal.NullDecimal `gorm:"column:pto_balance;type:numeric(8,2)"`
	SickLeaveBalance decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	VacationBalance  decimal.NullDecimal `gorm:"type:numeric(8,2)"`

	Status   string   `gorm:"type:varchar(20);not null;default:'generated';index"`
	Metadata Metadata `gorm:"embedded;embeddedPrefix:meta_"`

	PDFPath        *string    `gorm:"column:pdf_path"`
	PDFGeneratedAt *time.Time `gorm:"column:pdf_generated_at"`
	EmailedAt      *time.Time
	ViewedAt       *time.Time
	LastError      *string `gorm:"type:text"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines    []Line    `gorm:"foreignKey:PayStubID"`
	Deposits []Deposit `gorm:"foreignKey:PayStubID"`
}

type Metadata struct {
	ComplianceVersion string     `gorm:"type:varchar(20)"`
	ADACompliant      bool       `gorm:"column:ada_compliant;not null;default:true"`
	GenerationSource  string     `gorm:"type:varchar(20)"`
	PreviousStubID    *uuid.UUID `gorm:"type:uuid"`
	Revision          int        `gorm:"not null;default:1"`
	RegeneratedAt     *time.Time
}

// Line is one itemised amount. Category holds the earning type for earnings,
// the tax type for taxes and the deduction category for deductions.
type Line struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayStubID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineType     string              `gorm:"type:varchar(24);not null"`
	Position     int                 `gorm:"not null;default:0"`
	Code         string              `gorm:"type:varchar(30);not null"`
	Description  string              `gorm:"type:varchar(120)"`
	Category     string              `gorm:"type:varchar(30)"`
	TaxTreatment string              `gorm:"type:varchar(10)"`
	Hours        decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	Rate         decimal.NullDecimal `gorm:"type:numeric(10,4)"`
	Amount       decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	YTDAmount    decimal.Decimal     `gorm:"column:ytd_amount;type:numeric(14,2);not null;default:0"`
}

func (Line) TableName() string {
	return "pay_stub_lines"
}

type Deposit struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayStubID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Position     int                 `gorm:"not null;default:0"`
	AccountLabel string              `gorm:"type:varchar(60)"`
	AccountLast4 string              `gorm:"type:char(4)"`
	RoutingLast4 string              `gorm:"type:char(4)"`
	Percentage   decimal.NullDecimal `gorm:"type:numeric(5,2)"`
	Amount       decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	IsRemainder  bool                `gorm:"not null;default:false"`
}

func (Deposit) TableName() string {
	return "pay_stub_deposits"
}

// MaskedAccount renders the account as ****1234.
func (d Deposit) MaskedAccount() string {
	if d.AccountLast4 == "" {
		return ""
	}
	return "****" + d.AccountLast4
}

func (p *PayStub) Earnings() []Line {
	return p.linesOfType(LineEarning)
}

func (p *PayStub) Deductions() []Line {
	return p.linesOfType(LineDeduction)
}

func (p *PayStub) Taxes() []Line {
	return p.linesOfType(LineTax)
}

func (p *PayStub) EmployerContributions() []Line {
	return p.linesOfType(LineEmployerContribution)
}

func (p *PayStub) linesOfType(lineType string) []Line {
	out := make([]Line, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.LineType == lineType {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (p *PayStub) EmployeeName() string {
	if p.Employee == nil {
		return ""
	}
	return p.Employee.FullName
}

func (p *PayStub) HasPDF() bool {
	return p.PDFPath != nil && *p.PDFPath != ""
}
