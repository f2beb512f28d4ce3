package employee

import (
	"strings"
	"time"

	"go-paystub/internal/company"

	"github.com/google/uuid"
)

// Employee holds the identity fields printed on a pay stub.
type Employee struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID `gorm:"type:uuid;index"`
	FullName     string
	Email        string `gorm:"uniqueIndex"`
	SSNLast4     string `gorm:"column:ssn_last4;type:char(4)"`
	AddressLine1 string `gorm:"type:varchar(200)"`
	AddressLine2 string `gorm:"type:varchar(200)"`
	City         string `gorm:"type:varchar(100)"`
	State        string `gorm:"type:char(2)"`
	PostalCode   string `gorm:"type:varchar(10)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) Address() string {
	return company.FormatAddress(e.AddressLine1, e.AddressLine2, e.City, e.State, e.PostalCode)
}

// MaskedSSN renders the last four as XXX-XX-1234, or "" when unknown.
func (e Employee) MaskedSSN() string {
	last4 := strings.TrimSpace(e.SSNLast4)
	if len(last4) != 4 {
		return ""
	}
	return "XXX-XX-" + last4
}
