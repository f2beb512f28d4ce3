package paystub

import (
	"context"
	"errors"
	"time"

	"go-paystub/internal/payrollperiod"
	payrollperioderrors "go-paystub/internal/payrollperiod/errors"
	paystuberrors "go-paystub/internal/paystub/errors"
	"go-paystub/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type GeneratorConfig struct {
	Workers             int
	ExternalCallTimeout time.Duration
	ComplianceVersion   string
}

// Generator turns calculated payroll entries into stored pay stubs and
// optionally renders and emails them.
type Generator struct {
	periods  payrollperiod.Repository
	repo     Repository
	renderer Renderer
	mailer   Mailer
	cache    MetricsInvalidator
	cfg      GeneratorConfig
	logger   *zap.Logger
	now      func() time.Time
}

type GeneratorOption func(*Generator)

func WithGeneratorLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetricsInvalidator(cache MetricsInvalidator) GeneratorOption {
	return func(g *Generator) { g.cache = cache }
}

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(
	periods payrollperiod.Repository,
	repo Repository,
	renderer Renderer,
	mailer Mailer,
	cfg GeneratorConfig,
	opts ...GeneratorOption,
) *Generator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ExternalCallTimeout <= 0 {
		cfg.ExternalCallTimeout = 15 * time.Second
	}

	g := &Generator{
		periods:  periods,
		repo:     repo,
		renderer: renderer,
		mailer:   mailer,
		cfg:      cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("paystub.generator")
	return g
}

type generationTarget struct {
	employeeID string
	entry      *payrollperiod.PayrollEntry
}

type generationOutcome struct {
	stubID string
	err    *GenerationError
}

// Generate produces stubs for a payroll period. Per-employee failures are
// reported in the result; only an invalid request or an unknown period is
// returned as an error.
func (g *Generator) Generate(
	ctx context.Context,
	companyID, actorID string,
	req GeneratePayStubsRequest,
	source string,
) (GenerateResult, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return GenerateResult{}, paystuberrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return GenerateResult{}, apperror.ErrUnauthorized
	}
	if _, err := uuid.Parse(req.PayrollPeriodID); err != nil {
		return GenerateResult{}, paystuberrors.ErrInvalidPayrollPeriodID
	}
	employeeIDs, err := normalizeEmployeeIDs(req.EmployeeIDs)
	if err != nil {
		return GenerateResult{}, err
	}

	period, err := g.periods.FindPeriod(ctx, companyID, req.PayrollPeriodID)
	if err != nil {
		if errors.Is(err, payrollperioderrors.ErrPayrollPeriodNotFound) {
			return GenerateResult{}, paystuberrors.ErrPayrollPeriodNotFound
		}
		return GenerateResult{}, err
	}

	entries, err := g.periods.ListEntries(ctx, companyID, req.PayrollPeriodID, employeeIDs)
	if err != nil {
		return GenerateResult{}, err
	}
	targets := buildTargets(entries, employeeIDs)

	log := g.logger.With(
		zap.String("company_id", companyID),
		zap.String("payroll_period_id", req.PayrollPeriodID),
	)
	log.Info("generating pay stubs", zap.Int("employees", len(targets)), zap.String("source", source))

	outcomes := make([]generationOutcome, len(targets))
	var eg errgroup.Group
	eg.SetLimit(g.cfg.Workers)
	for i, target := range targets {
		i, target := i, target
		eg.Go(func() error {
			outcomes[i] = g.generateOne(ctx, period, target, actorUUID, req, source)
			return nil
		})
	}
	_ = eg.Wait()

	result := GenerateResult{
		PayStubIDs: make([]string, 0, len(targets)),
		Errors:     make([]GenerationError, 0),
	}
	for _, o := range outcomes {
		if o.err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, *o.err)
			continue
		}
		result.GeneratedCount++
		result.PayStubIDs = append(result.PayStubIDs, o.stubID)
	}
	result.Success = result.FailedCount == 0

	if len(targets) > 0 {
		g.invalidate(ctx, companyID)
	}

	log.Info("pay stub generation finished",
		zap.Int("generated", result.GeneratedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

func (g *Generator) generateOne(
	ctx context.Context,
	period *payrollperiod.PayrollPeriod,
	target generationTarget,
	actorID uuid.UUID,
	req GeneratePayStubsRequest,
	source string,
) generationOutcome {
	log := g.logger.With(zap.String("employee_id", target.employeeID))

	if target.entry == nil {
		log.Warn("employee has no calculated payroll entry")
		return failure(target, nil, paystuberrors.ErrEmployeeNotInPeriod)
	}

	companyID := period.CompanyID.String()
	stub, err := BuildPayStub(BuildInput{
		Period:            *period,
		Entry:             *target.entry,
		CreatedBy:         actorID,
		Source:            source,
		ComplianceVersion: g.cfg.ComplianceVersion,
	})
	if err != nil {
		log.Warn("pay stub failed validation", zap.Error(err))
		return failure(target, nil, err)
	}
	stub.ID = uuid.New()
	stub.CreatedAt = g.now()

	err = g.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.LockEmployee(ctx, companyID, target.employeeID); err != nil {
			return err
		}
		number, err := tx.NextStubNumber(ctx, companyID, stub.PayDate)
		if err != nil {
			return err
		}
		stub.StubNumber = number
		if err := tx.Create(ctx, stub); err != nil {
			return err
		}
		return g.rechainYTD(ctx, tx, stub)
	})
	if err != nil {
		log.Error("persist pay stub failed", zap.Error(err))
		return failure(target, nil, err)
	}
	log = log.With(zap.String("pay_stub_id", stub.ID.String()))

	if req.GeneratePDF {
		if err := g.renderPDF(ctx, stub); err != nil {
			log.Error("render pay stub pdf failed", zap.Error(err))
			g.markError(ctx, stub, err)
			return failure(target, stub, paystuberrors.ErrPDFRenderFailed.WithCause(err))
		}
	}

	if req.EmailToEmployees {
		if !stub.HasPDF() {
			log.Info("skipping pay stub email, pdf was not generated")
		} else if err := g.deliverEmail(ctx, stub); err != nil {
			log.Error("deliver pay stub email failed", zap.Error(err))
			g.markError(ctx, stub, err)
			return failure(target, stub, paystuberrors.ErrEmailDeliveryFailed.WithCause(err))
		}
	}

	return generationOutcome{stubID: stub.ID.String()}
}

// renderPDF stores the stub's PDF and advances it to pdf_ready.
func (g *Generator) renderPDF(ctx context.Context, stub *PayStub) error {
	renderCtx, cancel := context.WithTimeout(ctx, g.cfg.ExternalCallTimeout)
	defer cancel()

	path, err := g.renderer.Render(renderCtx, stub)
	if err != nil {
		return err
	}

	now := g.now()
	stub.PDFPath = &path
	stub.PDFGeneratedAt = &now
	if CanTransition(stub.Status, StatusPDFReady) {
		stub.Status = StatusPDFReady
	}
	return g.repo.UpdateStatus(ctx, stub)
}

// deliverEmail hands the stub to the mailer and advances it to emailed.
func (g *Generator) deliverEmail(ctx context.Context, stub *PayStub) error {
	mailCtx, cancel := context.WithTimeout(ctx, g.cfg.ExternalCallTimeout)
	defer cancel()

	if err := g.mailer.SendPayStub(mailCtx, stub); err != nil {
		return err
	}

	now := g.now()
	stub.EmailedAt = &now
	if CanTransition(stub.Status, StatusEmailed) {
		stub.Status = StatusEmailed
	}
	return g.repo.UpdateStatus(ctx, stub)
}

// requireLive rejects further work on a stub parked in error until it is
// regenerated.
func requireLive(stub *PayStub) error {
	if stub.Status == StatusError {
		return paystuberrors.ErrInvalidStatusTransition.WithDetails(map[string]string{"status": stub.Status})
	}
	return nil
}

func (g *Generator) markError(ctx context.Context, stub *PayStub, cause error) {
	msg := cause.Error()
	stub.Status = StatusError
	stub.LastError = &msg
	if err := g.repo.UpdateStatus(ctx, stub); err != nil {
		g.logger.Error("mark pay stub as error failed",
			zap.String("pay_stub_id", stub.ID.String()),
			zap.Error(err),
		)
	}
}

// Regenerate rebuilds a stub in place from the current payroll entry. The
// employee and the row stay locked for the whole rebuild, so concurrent
// regenerations of the same stub run one after another and never produce a
// second record. Later stubs of the year are rechained in the same
// transaction.
func (g *Generator) Regenerate(ctx context.Context, companyID, actorID, id string) (*PayStub, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, paystuberrors.ErrInvalidPayStubID
	}

	var rebuilt *PayStub
	err := g.repo.Transaction(ctx, func(tx Repository) error {
		existing, err := tx.FindByIDAndCompany(ctx, companyID, id)
		if err != nil {
			return err
		}
		// employee before stub, the same order generation takes
		if err := tx.LockEmployee(ctx, companyID, existing.EmployeeID.String()); err != nil {
			return err
		}
		current, err := tx.FindByIDForUpdate(ctx, companyID, id)
		if err != nil {
			return err
		}

		period, err := g.periods.FindPeriod(ctx, companyID, current.PayrollPeriodID.String())
		if err != nil {
			if errors.Is(err, payrollperioderrors.ErrPayrollPeriodNotFound) {
				return paystuberrors.ErrPayrollPeriodNotFound
			}
			return err
		}
		entry, err := g.periods.FindEntry(ctx, companyID, period.ID.String(), current.EmployeeID.String())
		if err != nil {
			if errors.Is(err, payrollperioderrors.ErrPayrollEntryNotFound) {
				return paystuberrors.ErrEmployeeNotInPeriod
			}
			return err
		}

		stub, err := BuildPayStub(BuildInput{
			Period:            *period,
			Entry:             *entry,
			CreatedBy:         current.CreatedBy,
			Source:            SourceRegenerate,
			ComplianceVersion: g.cfg.ComplianceVersion,
		})
		if err != nil {
			return err
		}

		now := g.now()
		stub.ID = current.ID
		stub.StubNumber = current.StubNumber
		stub.CreatedAt = current.CreatedAt
		stub.Metadata.Revision = current.Metadata.Revision + 1
		stub.Metadata.RegeneratedAt = &now

		if err := tx.Replace(ctx, stub); err != nil {
			return err
		}
		if err := g.rechainYTD(ctx, tx, stub); err != nil {
			return err
		}
		if year := current.PayDate.Year(); year != stub.PayDate.Year() {
			if _, err := g.rechainYear(ctx, tx, companyID, stub.EmployeeID.String(), year); err != nil {
				return err
			}
		}
		rebuilt = stub
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("pay stub regenerated",
		zap.String("pay_stub_id", rebuilt.ID.String()),
		zap.String("actor_id", actorID),
		zap.Int("revision", rebuilt.Metadata.Revision),
	)
	g.invalidate(ctx, companyID)
	return rebuilt, nil
}

// rechainYTD recomputes the year-to-date chain of stub's employee and year
// and copies the result for stub itself back onto it.
func (g *Generator) rechainYTD(ctx context.Context, tx Repository, stub *PayStub) error {
	chain, err := g.rechainYear(ctx, tx, stub.CompanyID.String(), stub.EmployeeID.String(), stub.PayDate.Year())
	if err != nil {
		return err
	}
	for i := range chain {
		if chain[i].ID == stub.ID {
			copyYTD(stub, &chain[i])
			break
		}
	}
	return nil
}

// rechainYear walks an employee's stubs of one year in pay date order and
// rewrites the year-to-date figures of every stub whose chain changed.
func (g *Generator) rechainYear(ctx context.Context, tx Repository, companyID, employeeID string, year int) ([]PayStub, error) {
	chain, err := tx.ListForEmployeeYear(ctx, companyID, employeeID, year)
	if err != nil {
		return nil, err
	}
	for _, i := range chainYTD(chain) {
		if err := tx.UpdateYTD(ctx, &chain[i]); err != nil {
			return nil, err
		}
	}
	return chain, nil
}

func (g *Generator) invalidate(ctx context.Context, companyID string) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, companyID)
	}
}

func failure(target generationTarget, stub *PayStub, err error) generationOutcome {
	ge := &GenerationError{
		EmployeeID:   target.employeeID,
		ErrorCode:    apperror.CodeOf(err),
		ErrorMessage: err.Error(),
	}
	if target.entry != nil {
		ge.EmployeeName = target.entry.EmployeeName()
	}
	if stub != nil {
		id := stub.ID.String()
		ge.PayStubID = &id
	}
	return generationOutcome{err: ge}
}

func normalizeEmployeeIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, paystuberrors.ErrInvalidEmployeeID.WithDetails(map[string]string{"employee_id": id})
		}
		key := parsed.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out, nil
}

// buildTargets keeps the requested order. Requested employees without an
// entry become targets with a nil entry.
func buildTargets(entries []payrollperiod.PayrollEntry, employeeIDs []string) []generationTarget {
	if len(employeeIDs) == 0 {
		targets := make([]generationTarget, len(entries))
		for i := range entries {
			targets[i] = generationTarget{employeeID: entries[i].EmployeeID.String(), entry: &entries[i]}
		}
		return targets
	}

	byEmployee := make(map[string]*payrollperiod.PayrollEntry, len(entries))
	for i := range entries {
		byEmployee[entries[i].EmployeeID.String()] = &entries[i]
	}
	targets := make([]generationTarget, len(employeeIDs))
	for i, id := range employeeIDs {
		targets[i] = generationTarget{employeeID: id, entry: byEmployee[id]}
	}
	return targets
}
