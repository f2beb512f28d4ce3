package paystub_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-paystub/internal/accesslog"
	"go-paystub/internal/company"
	"go-paystub/internal/employee"
	"go-paystub/internal/payrollperiod"
	payrollperioderrors "go-paystub/internal/payrollperiod/errors"
	"go-paystub/internal/paystub"
	paystuberrors "go-paystub/internal/paystub/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	testCompanyID = uuid.MustParse("7b0f3f52-5a2e-4c36-9d43-0a8c1e6f2b10")
	testPeriodID  = uuid.MustParse("c2d4e6f8-1a3b-4c5d-8e9f-0a1b2c3d4e5f")
	testActorID   = uuid.MustParse("5e6f7a8b-9c0d-4e1f-a2b3-c4d5e6f7a8b9")
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func date(v string) time.Time {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		panic(err)
	}
	return t
}

func newCompany() *company.Company {
	return &company.Company{
		ID:           testCompanyID,
		Name:         "Cascade Coffee",
		LegalName:    "Cascade Coffee Roasters LLC",
		Phone:        "206-555-0100",
		AddressLine1: "100 Pine St",
		City:         "Seattle",
		State:        "WA",
		PostalCode:   "98101",
		Registrations: []company.CompanyRegistration{
			{Type: company.RegistrationTypeEIN, Number: "91-1234567"},
		},
	}
}

func newEmployee(name, ssnLast4 string) *employee.Employee {
	return &employee.Employee{
		ID:           uuid.New(),
		CompanyID:    testCompanyID,
		FullName:     name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		SSNLast4:     ssnLast4,
		AddressLine1: "12 Elm Ave",
		City:         "Tacoma",
		State:        "WA",
		PostalCode:   "98402",
	}
}

func newPeriod() payrollperiod.PayrollPeriod {
	return payrollperiod.PayrollPeriod{
		ID:          testPeriodID,
		CompanyID:   testCompanyID,
		Company:     newCompany(),
		Name:        "2026-03 A",
		PeriodStart: date("2026-03-01"),
		PeriodEnd:   date("2026-03-15"),
		PayDate:     date("2026-03-20"),
		Frequency:   payrollperiod.FrequencySemimonthly,
	}
}

// newEntry builds a calculated entry with gross 2187.50, deductions 100.00,
// taxes 367.34 and net 1720.16, split 60% checking and the rest to savings.
func newEntry(emp *employee.Employee) payrollperiod.PayrollEntry {
	return payrollperiod.PayrollEntry{
		ID:                uuid.New(),
		CompanyID:         testCompanyID,
		PayrollPeriodID:   testPeriodID,
		EmployeeID:        emp.ID,
		Employee:          emp,
		StateJurisdiction: "WA",
		RegularHours:      d("80"),
		OvertimeHours:     d("5"),
		RegularRate:       d("25"),
		OvertimeRate:      d("37.5"),
		PTOBalance:        nd("24"),
		SickLeaveBalance:  nd("16.5"),
		Components: []payrollperiod.PayrollComponent{
			{ComponentType: payrollperiod.ComponentEarning, Code: "REG", ComponentName: "Regular", Category: "regular", Hours: nd("80"), Rate: nd("25"), TotalAmount: d("2000.00")},
			{ComponentType: payrollperiod.ComponentEarning, Code: "OT", ComponentName: "Overtime", Category: "overtime", Hours: nd("5"), Rate: nd("37.5"), TotalAmount: d("187.50")},
			{ComponentType: payrollperiod.ComponentDeduction, Code: "401K", ComponentName: "401(k)", Category: paystub.DeductionVoluntary, TaxTreatment: paystub.TaxTreatmentPreTax, TotalAmount: d("100.00")},
			{ComponentType: payrollperiod.ComponentTax, Code: "FIT", ComponentName: "Federal Income Tax", Category: "federal_income", TotalAmount: d("200.00")},
			{ComponentType: payrollperiod.ComponentTax, Code: "SS", ComponentName: "Social Security", Category: "social_security", TotalAmount: d("135.62")},
			{ComponentType: payrollperiod.ComponentTax, Code: "MED", ComponentName: "Medicare", Category: "medicare", TotalAmount: d("31.72")},
			{ComponentType: payrollperiod.ComponentEmployerContribution, Code: "ER401K", ComponentName: "401(k) Match", TotalAmount: d("50.00")},
		},
		Deposits: []payrollperiod.DirectDeposit{
			{AccountLabel: "Checking", AccountLast4: "4321", RoutingLast4: "0001", Percentage: nd("60")},
			{AccountLabel: "Savings", AccountLast4: "8765", RoutingLast4: "0001", IsRemainder: true},
		},
	}
}

// fakePeriodRepository serves newPeriod plus any periods added with
// addPeriod, and the entries of all of them.
type fakePeriodRepository struct {
	mu      sync.Mutex
	period  *payrollperiod.PayrollPeriod
	others  []payrollperiod.PayrollPeriod
	entries []payrollperiod.PayrollEntry
}

func newFakePeriods(entries ...payrollperiod.PayrollEntry) *fakePeriodRepository {
	p := newPeriod()
	return &fakePeriodRepository{period: &p, entries: entries}
}

func (f *fakePeriodRepository) addPeriod(p payrollperiod.PayrollPeriod, entries ...payrollperiod.PayrollEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.others = append(f.others, p)
	f.entries = append(f.entries, entries...)
}

func (f *fakePeriodRepository) FindPeriod(ctx context.Context, companyID, periodID string) (*payrollperiod.PayrollPeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	candidates := f.others
	if f.period != nil {
		candidates = append([]payrollperiod.PayrollPeriod{*f.period}, f.others...)
	}
	for _, p := range candidates {
		if p.ID.String() == periodID && p.CompanyID.String() == companyID {
			found := p
			return &found, nil
		}
	}
	return nil, payrollperioderrors.ErrPayrollPeriodNotFound
}

func (f *fakePeriodRepository) ListEntries(ctx context.Context, companyID, periodID string, employeeIDs []string) ([]payrollperiod.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		want[id] = true
	}
	out := make([]payrollperiod.PayrollEntry, 0, len(f.entries))
	for _, e := range f.entries {
		if e.PayrollPeriodID.String() != periodID {
			continue
		}
		if len(want) == 0 || want[e.EmployeeID.String()] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePeriodRepository) FindEntry(ctx context.Context, companyID, periodID, employeeID string) (*payrollperiod.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.PayrollPeriodID.String() == periodID && e.EmployeeID.String() == employeeID {
			entry := e
			return &entry, nil
		}
	}
	return nil, payrollperioderrors.ErrPayrollEntryNotFound
}

// setEntry replaces the entry of one employee, as a payroll correction would.
func (f *fakePeriodRepository) setEntry(entry payrollperiod.PayrollEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].EmployeeID == entry.EmployeeID && f.entries[i].PayrollPeriodID == entry.PayrollPeriodID {
			f.entries[i] = entry
			return
		}
	}
	f.entries = append(f.entries, entry)
}

// memRepository is an in-memory pay stub store. Transactions are serialized,
// which is what the row lock gives FindByIDForUpdate in postgres, and the
// employee/period pair is unique.
type memRepository struct {
	txMu    sync.Mutex
	mu      sync.Mutex
	stubs     map[uuid.UUID]*paystub.PayStub
	counter   int
	ytdWrites int
}

func newMemRepository() *memRepository {
	return &memRepository{stubs: make(map[uuid.UUID]*paystub.PayStub)}
}

func clone(p *paystub.PayStub) *paystub.PayStub {
	cp := *p
	cp.Lines = append([]paystub.Line(nil), p.Lines...)
	cp.Deposits = append([]paystub.Deposit(nil), p.Deposits...)
	return &cp
}

func (r *memRepository) put(p *paystub.PayStub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs[p.ID] = clone(p)
}

func (r *memRepository) get(id uuid.UUID) *paystub.PayStub {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.stubs[id]; ok {
		return clone(p)
	}
	return nil
}

func (r *memRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stubs)
}

func (r *memRepository) Transaction(ctx context.Context, fn func(repo paystub.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(r)
}

func (r *memRepository) NextStubNumber(ctx context.Context, companyID string, payDate time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter++
	return fmt.Sprintf("PS-%s-%06d", payDate.Format("200601"), r.counter), nil
}

func (r *memRepository) Create(ctx context.Context, stub *paystub.PayStub) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.stubs {
		if existing.EmployeeID == stub.EmployeeID && existing.PayrollPeriodID == stub.PayrollPeriodID {
			return paystuberrors.ErrDuplicatePayStub
		}
	}
	if stub.ID == uuid.Nil {
		stub.ID = uuid.New()
	}
	r.stubs[stub.ID] = clone(stub)
	return nil
}

func (r *memRepository) Replace(ctx context.Context, stub *paystub.PayStub) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stubs[stub.ID]; !ok {
		return paystuberrors.ErrPayStubNotFound
	}
	r.stubs[stub.ID] = clone(stub)
	return nil
}

func (r *memRepository) UpdateStatus(ctx context.Context, stub *paystub.PayStub) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.stubs[stub.ID]
	if !ok {
		return paystuberrors.ErrPayStubNotFound
	}
	existing.Status = stub.Status
	existing.PDFPath = stub.PDFPath
	existing.PDFGeneratedAt = stub.PDFGeneratedAt
	existing.EmailedAt = stub.EmailedAt
	existing.ViewedAt = stub.ViewedAt
	existing.LastError = stub.LastError
	return nil
}

func (r *memRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*paystub.PayStub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.stubs {
		if p.ID.String() == id && p.CompanyID.String() == companyID {
			return clone(p), nil
		}
	}
	return nil, paystuberrors.ErrPayStubNotFound
}

func (r *memRepository) FindByIDForUpdate(ctx context.Context, companyID, id string) (*paystub.PayStub, error) {
	return r.FindByIDAndCompany(ctx, companyID, id)
}

func (r *memRepository) FindAllByCompany(ctx context.Context, companyID string, filter paystub.PayStubQueryFilter) ([]paystub.PayStub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]paystub.PayStub, 0, len(r.stubs))
	for _, p := range r.stubs {
		if p.CompanyID.String() != companyID {
			continue
		}
		if !matchesFilter(p, filter) {
			continue
		}
		out = append(out, *clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StubNumber > out[j].StubNumber })
	return out, nil
}

func (r *memRepository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	return nil
}

func (r *memRepository) ListForEmployeeYear(ctx context.Context, companyID, employeeID string, year int) ([]paystub.PayStub, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []paystub.PayStub
	for _, p := range r.stubs {
		if p.CompanyID.String() == companyID && p.EmployeeID.String() == employeeID && p.PayDate.Year() == year {
			out = append(out, *clone(p))
		}
	}
	return out, nil
}

func (r *memRepository) UpdateYTD(ctx context.Context, stub *paystub.PayStub) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.stubs[stub.ID]
	if !ok {
		return paystuberrors.ErrPayStubNotFound
	}
	r.ytdWrites++
	existing.YTDGrossPay = stub.YTDGrossPay
	existing.YTDNetPay = stub.YTDNetPay
	existing.YTDDeductions = stub.YTDDeductions
	existing.YTDTaxes = stub.YTDTaxes
	existing.Metadata.PreviousStubID = stub.Metadata.PreviousStubID
	for i := range existing.Lines {
		for _, l := range stub.Lines {
			if l.Position == existing.Lines[i].Position {
				existing.Lines[i].YTDAmount = l.YTDAmount
			}
		}
	}
	return nil
}

func matchesFilter(p *paystub.PayStub, f paystub.PayStubQueryFilter) bool {
	if f.EmployeeName != "" && (p.Employee == nil || !strings.Contains(strings.ToLower(p.Employee.FullName), strings.ToLower(f.EmployeeName))) {
		return false
	}
	if f.EmployeeID != "" && p.EmployeeID.String() != f.EmployeeID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.StateJurisdiction != "" && p.StateJurisdiction != strings.ToUpper(f.StateJurisdiction) {
		return false
	}
	if f.StubNumber != "" && p.StubNumber != f.StubNumber {
		return false
	}
	if f.MinAmount != nil && p.GrossPay.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && p.GrossPay.GreaterThan(*f.MaxAmount) {
		return false
	}
	if f.PayDateStart != nil && p.PayDate.Before(*f.PayDateStart) {
		return false
	}
	if f.PayDateEnd != nil && p.PayDate.After(*f.PayDateEnd) {
		return false
	}
	return true
}

func (r *memRepository) ListIDs(ctx context.Context, companyID string, from, to *time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.stubs))
	for _, p := range r.stubs {
		if p.CompanyID.String() == companyID {
			ids = append(ids, p.ID.String())
		}
	}
	return ids, nil
}

func (r *memRepository) Aggregate(ctx context.Context, companyID string, from, to *time.Time) (paystub.Aggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg := paystub.Aggregate{TotalGross: decimal.Zero}
	employees := map[uuid.UUID]bool{}
	for _, p := range r.stubs {
		if p.CompanyID.String() != companyID {
			continue
		}
		agg.TotalGenerated++
		agg.TotalGross = agg.TotalGross.Add(p.GrossPay)
		employees[p.EmployeeID] = true
	}
	agg.EmployeeCount = int64(len(employees))
	return agg, nil
}

// fakeRenderer stores PDFs in memory and fails for the listed employees.
type fakeRenderer struct {
	mu      sync.Mutex
	files   map[string][]byte
	failFor map[uuid.UUID]error
	renders int
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{files: map[string][]byte{}, failFor: map[uuid.UUID]error{}}
}

func (r *fakeRenderer) Render(ctx context.Context, stub *paystub.PayStub) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failFor[stub.EmployeeID]; ok {
		return "", err
	}
	r.renders++
	path := fmt.Sprintf("mem://%s/%s-r%d.pdf", stub.CompanyID, stub.StubNumber, stub.Metadata.Revision)
	r.files[path] = []byte("%PDF-1.4 " + stub.StubNumber)
	return path, nil
}

func (r *fakeRenderer) Open(ctx context.Context, path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []uuid.UUID
	failFor map[uuid.UUID]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[uuid.UUID]error{}}
}

func (m *fakeMailer) SendPayStub(ctx context.Context, stub *paystub.PayStub) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[stub.EmployeeID]; ok {
		return err
	}
	m.sent = append(m.sent, stub.ID)
	return nil
}

// fakeLedger keeps recorded entries in memory.
type fakeLedger struct {
	mu      sync.Mutex
	entries []accesslog.Entry
}

func (l *fakeLedger) Record(ctx context.Context, entry accesslog.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *fakeLedger) Wait() {}

func (l *fakeLedger) ListByPayStub(ctx context.Context, companyID, payStubID string) ([]accesslog.AccessLogResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]accesslog.AccessLogResponse, 0)
	for _, e := range l.entries {
		if e.PayStubID == payStubID {
			out = append(out, accesslog.AccessLogResponse{PayStubID: e.PayStubID, AccessedBy: e.AccessedBy, AccessType: e.AccessType})
		}
	}
	return out, nil
}

func (l *fakeLedger) CountByType(ctx context.Context, companyID string, payStubIDs []string) (map[string]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	counts := map[string]int64{}
	for _, e := range l.entries {
		counts[e.AccessType]++
	}
	return counts, nil
}

func (l *fakeLedger) ofType(accessType string) []accesslog.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []accesslog.Entry
	for _, e := range l.entries {
		if e.AccessType == accessType {
			out = append(out, e)
		}
	}
	return out
}
