package accesslog

import (
	"context"

	"go-paystub/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=accesslog_repo.go -destination=mock/accesslog_repo_mock.go -package=mock
type Repository interface {
	Append(ctx context.Context, log *AccessLog) error
	ListByPayStub(ctx context.Context, companyID, payStubID string) ([]AccessLog, error)
	CountByType(ctx context.Context, companyID string, payStubIDs []string) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, log *AccessLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) ListByPayStub(ctx context.Context, companyID, payStubID string) ([]AccessLog, error) {
	var logs []AccessLog
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("pay_stub_id = ?", payStubID).
		Order("accessed_at ASC").
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *repository) CountByType(ctx context.Context, companyID string, payStubIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(payStubIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AccessType string
		Total      int64
	}
	err := r.db.WithContext(ctx).
		Model(&AccessLog{}).
		Select("access_type, COUNT(*) AS total").
		Scopes(tenant.Scope(companyID)).
		Where("pay_stub_id IN ?", payStubIDs).
		Group("access_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.AccessType] = row.Total
	}
	return counts, nil
}
