package payrollperiod

import (
	"time"

	"go-paystub/internal/company"
	"go-paystub/internal/employee"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FrequencyWeekly      = "weekly"
	FrequencyBiweekly    = "biweekly"
	FrequencySemimonthly = "semimonthly"
	FrequencyMonthly     = "monthly"
)

const (
	ComponentEarning              = "earning"
	ComponentDeduction            = "deduction"
	ComponentTax                  = "tax"
	ComponentEmployerContribution = "employer_contribution"
)

// PayrollPeriod is a closed pay period whose entries have been calculated.
type PayrollPeriod struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	Company     *company.Company `gorm:"foreignKey:CompanyID;references:ID"`
	Name        string           `gorm:"type:varchar(120)"`
	PeriodStart time.Time        `gorm:"type:date;not null"`
	PeriodEnd   time.Time        `gorm:"type:date;not null"`
	PayDate     time.Time        `gorm:"type:date;not null"`
	Frequency   string           `gorm:"type:varchar(20);not null"`
	Status      string           `gorm:"type:varchar(20);not null;default:'CALCULATED'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PayrollEntry is the calculated pay of one employee for one period.
type PayrollEntry struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	PayrollPeriodID uuid.UUID          `gorm:"type:uuid;not null;index:idx_entry_period_employee,unique"`
	EmployeeID      uuid.UUID          `gorm:"type:uuid;not null;index:idx_entry_period_employee,unique"`
	Employee        *employee.Employee `gorm:"foreignKey:EmployeeID;references:ID"`

	StateJurisdiction string `gorm:"type:char(2)"`

	RegularHours    decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	OvertimeHours   decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	DoubleTimeHours decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"`
	RegularRate     decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	OvertimeRate    decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	DoubleTimeRate  decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`

	// Null means the balance is not tracked for this employee.
	PTOBalance       decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	SickLeaveBalance decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	VacationBalance  decimal.NullDecimal `gorm:"type:numeric(8,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Components []PayrollComponent `gorm:"foreignKey:PayrollEntryID"`
	Deposits   []DirectDeposit    `gorm:"foreignKey:PayrollEntryID"`
}

type PayrollComponent struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollEntryID uuid.UUID           `gorm:"type:uuid;not null;index"`
	CompanyID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	ComponentType  string              `gorm:"type:varchar(24);not null;index"`
	Code           string              `gorm:"type:varchar(30);not null"`
	ComponentName  string              `gorm:"type:varchar(120);not null"`
	Category       string              `gorm:"type:varchar(30)"`
	TaxTreatment   string              `gorm:"type:varchar(10)"`
	Hours          decimal.NullDecimal `gorm:"type:numeric(8,2)"`
	Rate           decimal.NullDecimal `gorm:"type:numeric(10,4)"`
	TotalAmount    decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	Position       int                 `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type DirectDeposit struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayrollEntryID uuid.UUID           `gorm:"type:uuid;not null;index"`
	AccountLabel   string              `gorm:"type:varchar(60)"`
	AccountLast4   string              `gorm:"type:char(4)"`
	RoutingLast4   string              `gorm:"type:char(4)"`
	Percentage     decimal.NullDecimal `gorm:"type:numeric(5,2)"`
	Amount         decimal.Decimal     `gorm:"type:numeric(12,2);not null;default:0"`
	IsRemainder    bool                `gorm:"not null;default:false"`
	Position       int                 `gorm:"not null;default:0"`
}

func (DirectDeposit) TableName() string {
	return "payroll_direct_deposits"
}

// ComponentsOfType returns the components of one type in position order.
func (e PayrollEntry) ComponentsOfType(componentType string) []PayrollComponent {
	out := make([]PayrollComponent, 0, len(e.Components))
	for _, c := range e.Components {
		if c.ComponentType == componentType {
			out = append(out, c)
		}
	}
	return out
}

// EmployeeName is "" when the employee row was not loaded.
func (e PayrollEntry) EmployeeName() string {
	if e.Employee == nil {
		return ""
	}
	return e.Employee.FullName
}
