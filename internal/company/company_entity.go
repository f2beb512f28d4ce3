package company

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the employer named on every pay stub. Pay stubs reference it by
// id and load it with Preload, so a corrected address shows up on old stubs.
type Company struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name          string                `gorm:"type:varchar(150);not null"`
	LegalName     string                `gorm:"type:varchar(200)"`
	Email         string                `gorm:"type:varchar(255);index"`
	Phone         string                `gorm:"type:varchar(30)"`
	AddressLine1  string                `gorm:"type:varchar(200)"`
	AddressLine2  string                `gorm:"type:varchar(200)"`
	City          string                `gorm:"type:varchar(100)"`
	State         string                `gorm:"type:char(2)"`
	PostalCode    string                `gorm:"type:varchar(10)"`
	IsActive      bool                  `gorm:"not null;default:true"`
	CreatedAt     time.Time             `gorm:"not null;default:now()"`
	UpdatedAt     time.Time             `gorm:"not null;default:now()"`
	DeletedAt     gorm.DeletedAt        `gorm:"index"`
	Registrations []CompanyRegistration `gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string {
	return "companies"
}

// DisplayName prefers the legal name.
func (c Company) DisplayName() string {
	if strings.TrimSpace(c.LegalName) != "" {
		return c.LegalName
	}
	return c.Name
}

func (c Company) Address() string {
	return FormatAddress(c.AddressLine1, c.AddressLine2, c.City, c.State, c.PostalCode)
}

func (c Company) EIN() string {
	return c.registration(RegistrationTypeEIN)
}

func (c Company) UBINumber() string {
	return c.registration(RegistrationTypeUBI)
}

func (c Company) registration(t RegistrationType) string {
	for _, r := range c.Registrations {
		if r.Type == t {
			return r.Number
		}
	}
	return ""
}

// FormatAddress joins the non-empty parts as "line1, line2, City, ST 12345".
func FormatAddress(line1, line2, city, state, postalCode string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{line1, line2, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(state) + " " + strings.TrimSpace(postalCode))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}
