package paystub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-paystub/internal/shared/counter"
	"go-paystub/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PayStubQueryFilter narrows a search. Zero values leave a criterion open.
type PayStubQueryFilter struct {
	EmployeeName      string
	EmployeeID        string
	Status            string
	StateJurisdiction string
	StubNumber        string
	PayDateStart      *time.Time
	PayDateEnd        *time.Time
	MinAmount         *decimal.Decimal
	MaxAmount         *decimal.Decimal
}

// Aggregate is the stored part of the company metrics.
type Aggregate struct {
	TotalGenerated int64           `json:"total_generated"`
	TotalGross     decimal.Decimal `json:"total_gross"`
	EmployeeCount  int64           `json:"employee_count"`
}

type Repository interface {
	// Transaction runs fn against a repository bound to one database
	// transaction.
	Transaction(ctx context.Context, fn func(repo Repository) error) error
	NextStubNumber(ctx context.Context, companyID string, payDate time.Time) (string, error)
	Create(ctx context.Context, stub *PayStub) error
	// Replace overwrites a stub and its lines and deposits in place.
	Replace(ctx context.Context, stub *PayStub) error
	UpdateStatus(ctx context.Context, stub *PayStub) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*PayStub, error)
	FindByIDForUpdate(ctx context.Context, companyID, id string) (*PayStub, error)
	FindAllByCompany(ctx context.Context, companyID string, filter PayStubQueryFilter) ([]PayStub, error)
	// LockEmployee serializes writers of one employee's stubs for the rest
	// of the transaction.
	LockEmployee(ctx context.Context, companyID, employeeID string) error
	ListForEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]PayStub, error)
	// UpdateYTD writes only the year-to-date columns of a stub and its lines.
	UpdateYTD(ctx context.Context, stub *PayStub) error
	ListIDs(ctx context.Context, companyID string, from, to *time.Time) ([]string, error)
	Aggregate(ctx context.Context, companyID string, from, to *time.Time) (Aggregate, error)
}

type repository struct {
	db       *gorm.DB
	counters counter.Repository
}

func NewRepository(db *gorm.DB, counters counter.Repository) Repository {
	return &repository{db: db, counters: counters}
}

func (r *repository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx, counters: r.counters})
	})
}

// NextStubNumber formats the company counter as PS-YYYYMM-NNNNNN.
func (r *repository) NextStubNumber(ctx context.Context, companyID string, payDate time.Time) (string, error) {
	next, err := r.counters.WithTx(r.db).GetNextValue(ctx, companyID, counter.TypePayStubNumber)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PS-%s-%06d", payDate.Format("200601"), next), nil
}

func (r *repository) Create(ctx context.Context, stub *PayStub) error {
	assignChildIDs(stub)
	err := r.db.WithContext(ctx).
		Omit("Employee", "Company").
		Create(stub).Error
	return mapRepositoryError(err)
}

func (r *repository) Replace(ctx context.Context, stub *PayStub) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("pay_stub_id = ?", stub.ID).Delete(&Line{}).Error; err != nil {
		return err
	}
	if err := db.Where("pay_stub_id = ?", stub.ID).Delete(&Deposit{}).Error; err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Save(stub).Error; err != nil {
		return mapRepositoryError(err)
	}

	assignChildIDs(stub)
	if len(stub.Lines) > 0 {
		if err := db.Create(&stub.Lines).Error; err != nil {
			return err
		}
	}
	if len(stub.Deposits) > 0 {
		if err := db.Create(&stub.Deposits).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, stub *PayStub) error {
	res := r.db.WithContext(ctx).
		Model(&PayStub{}).
		Scopes(tenant.Scope(stub.CompanyID.String())).
		Where("id = ?", stub.ID).
		Updates(map[string]any{
			"status":           stub.Status,
			"pdf_path":         stub.PDFPath,
			"pdf_generated_at": stub.PDFGeneratedAt,
			"emailed_at":       stub.EmailedAt,
			"viewed_at":        stub.ViewedAt,
			"last_error":       stub.LastError,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapRepositoryError(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*PayStub, error) {
	var stub PayStub
	err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(tenant.Scope(companyID)).
		First(&stub, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return &stub, nil
}

// FindByIDForUpdate locks the stub row for the rest of the transaction before
// loading it with its details.
func (r *repository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*PayStub, error) {
	var locked PayStub
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Scopes(tenant.Scope(companyID)).
		First(&locked, "id = ?", id).Error
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return r.FindByIDAndCompany(ctx, companyID, id)
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter PayStubQueryFilter) ([]PayStub, error) {
	var stubs []PayStub
	err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(tenant.TableScope("pay_stubs", companyID), searchScope(filter)).
		Order("pay_stubs.pay_date DESC").
		Order("pay_stubs.stub_number DESC").
		Find(&stubs).Error
	return stubs, err
}

func (r *repository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	var ids []string
	return r.db.WithContext(ctx).
		Table("employees").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", employeeID).
		Pluck("id", &ids).Error
}

func (r *repository) ListForEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]PayStub, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	var stubs []PayStub
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("pay_date >= ? AND pay_date < ?", from, from.AddDate(1, 0, 0)).
		Order("pay_date ASC").
		Order("created_at ASC").
		Order("stub_number ASC").
		Find(&stubs).Error
	return stubs, err
}

func (r *repository) UpdateYTD(ctx context.Context, stub *PayStub) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&PayStub{}).
		Scopes(tenant.Scope(stub.CompanyID.String())).
		Where("id = ?", stub.ID).
		Updates(map[string]any{
			"ytd_gross_pay":         stub.YTDGrossPay,
			"ytd_net_pay":           stub.YTDNetPay,
			"ytd_deductions":        stub.YTDDeductions,
			"ytd_taxes":             stub.YTDTaxes,
			"meta_previous_stub_id": stub.Metadata.PreviousStubID,
			"updated_at":            time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return mapRepositoryError(gorm.ErrRecordNotFound)
	}

	for _, l := range stub.Lines {
		err := db.Model(&Line{}).
			Where("id = ? AND pay_stub_id = ?", l.ID, stub.ID).
			Update("ytd_amount", l.YTDAmount).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ListIDs(ctx context.Context, companyID string, from, to *time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&PayStub{}).
		Scopes(tenant.Scope(companyID), payDateScope("pay_date", from, to)).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) Aggregate(ctx context.Context, companyID string, from, to *time.Time) (Aggregate, error) {
	var agg Aggregate
	err := r.db.WithContext(ctx).
		Model(&PayStub{}).
		Select(`COUNT(*) AS total_generated,
			COALESCE(SUM(gross_pay), 0) AS total_gross,
			COUNT(DISTINCT employee_id) AS employee_count`).
		Scopes(tenant.Scope(companyID), payDateScope("pay_date", from, to)).
		Scan(&agg).Error
	return agg, err
}

func (r *repository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Employee").
		Preload("Company.Registrations").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Deposits", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func searchScope(f PayStubQueryFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if name := strings.TrimSpace(f.EmployeeName); name != "" {
			db = db.Joins("JOIN employees ON employees.id = pay_stubs.employee_id").
				Where("employees.full_name ILIKE ?", "%"+escapeLike(name)+"%")
		}
		if f.EmployeeID != "" {
			db = db.Where("pay_stubs.employee_id = ?", f.EmployeeID)
		}
		if f.Status != "" {
			db = db.Where("pay_stubs.status = ?", f.Status)
		}
		if f.StateJurisdiction != "" {
			db = db.Where("pay_stubs.state_jurisdiction = ?", strings.ToUpper(f.StateJurisdiction))
		}
		if f.StubNumber != "" {
			db = db.Where("pay_stubs.stub_number = ?", f.StubNumber)
		}
		if f.MinAmount != nil {
			db = db.Where("pay_stubs.gross_pay >= ?", *f.MinAmount)
		}
		if f.MaxAmount != nil {
			db = db.Where("pay_stubs.gross_pay <= ?", *f.MaxAmount)
		}
		return payDateScope("pay_stubs.pay_date", f.PayDateStart, f.PayDateEnd)(db)
	}
}

// payDateScope bounds column inclusively on both ends.
func payDateScope(column string, from, to *time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", *from)
		}
		if to != nil {
			db = db.Where(column+" <= ?", *to)
		}
		return db
	}
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(v)
}

func assignChildIDs(stub *PayStub) {
	if stub.ID == uuid.Nil {
		stub.ID = uuid.New()
	}
	for i := range stub.Lines {
		stub.Lines[i].ID = uuid.New()
		stub.Lines[i].PayStubID = stub.ID
	}
	for i := range stub.Deposits {
		stub.Deposits[i].ID = uuid.New()
		stub.Deposits[i].PayStubID = stub.ID
	}
}
