package payrollperiod

import (
	"context"
	"errors"

	payrollperioderrors "go-paystub/internal/payrollperiod/errors"
	"go-paystub/internal/tenant"

	"gorm.io/gorm"
)

type Repository interface {
	FindPeriod(ctx context.Context, companyID, periodID string) (*PayrollPeriod, error)
	// ListEntries returns every entry of the period, or only those of
	// employeeIDs when it is non-empty.
	ListEntries(ctx context.Context, companyID, periodID string, employeeIDs []string) ([]PayrollEntry, error)
	FindEntry(ctx context.Context, companyID, periodID, employeeID string) (*PayrollEntry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindPeriod(ctx context.Context, companyID, periodID string) (*PayrollPeriod, error) {
	var period PayrollPeriod
	err := r.db.WithContext(ctx).
		Preload("Company.Registrations").
		Scopes(tenant.Scope(companyID)).
		First(&period, "id = ?", periodID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payrollperioderrors.ErrPayrollPeriodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *repository) ListEntries(ctx context.Context, companyID, periodID string, employeeIDs []string) ([]PayrollEntry, error) {
	var entries []PayrollEntry
	db := r.entryQuery(ctx, companyID).
		Where("payroll_period_id = ?", periodID)
	if len(employeeIDs) > 0 {
		db = db.Where("employee_id IN ?", employeeIDs)
	}
	err := db.Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *repository) FindEntry(ctx context.Context, companyID, periodID, employeeID string) (*PayrollEntry, error) {
	var entry PayrollEntry
	err := r.entryQuery(ctx, companyID).
		Where("payroll_period_id = ? AND employee_id = ?", periodID, employeeID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payrollperioderrors.ErrPayrollEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) entryQuery(ctx context.Context, companyID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Employee").
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Deposits", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}
