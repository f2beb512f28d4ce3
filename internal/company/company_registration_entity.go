package company

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationType string

// UBI is the Washington Unified Business Identifier.
const (
	RegistrationTypeEIN RegistrationType = "EIN"
	RegistrationTypeUBI RegistrationType = "UBI"
)

type CompanyRegistration struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type      RegistrationType `gorm:"type:varchar(20);not null"`
	Number    string           `gorm:"type:varchar(100);not null"`
	IssuedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
