package accesslog

import (
	"time"

	"github.com/google/uuid"
)

const (
	AccessView     = "view"
	AccessDownload = "download"
	AccessEmail    = "email"
)

// AccessLog is one consumption of a pay stub. Rows are only ever inserted.
type AccessLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PayStubID  uuid.UUID `gorm:"type:uuid;not null;index:idx_access_log_stub_time"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	AccessedBy string    `gorm:"type:varchar(64);not null"`
	AccessType string    `gorm:"type:varchar(16);not null;index"`
	IPAddress  string    `gorm:"type:varchar(45)"`
	UserAgent  string    `gorm:"type:text"`
	AccessedAt time.Time `gorm:"not null;index:idx_access_log_stub_time"`
}

func (AccessLog) TableName() string {
	return "pay_stub_access_logs"
}

func IsValidAccessType(t string) bool {
	switch t {
	case AccessView, AccessDownload, AccessEmail:
		return true
	}
	return false
}
