package paystub

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go-paystub/internal/accesslog"
	"go-paystub/internal/compliance"
	"go-paystub/internal/events"
	"go-paystub/internal/messaging/kafka"
	paystuberrors "go-paystub/internal/paystub/errors"
	"go-paystub/internal/shared/apperror"
	"go-paystub/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service interface {
	Generate(ctx context.Context, companyID, actorID string, req GeneratePayStubsRequest) (GenerateResult, error)
	QueueGeneration(ctx context.Context, companyID, actorID string, req GeneratePayStubsRequest) (QueuedGenerationResponse, error)
	Search(ctx context.Context, companyID string, req SearchPayStubsRequest) ([]PayStubResponse, error)
	GetByID(ctx context.Context, companyID, id string) (PayStubResponse, error)
	View(ctx context.Context, companyID, actorID, id string) (PayStubResponse, error)
	Download(ctx context.Context, companyID, actorID, id string) (DownloadResult, error)
	Regenerate(ctx context.Context, companyID, actorID, id string) (PayStubResponse, error)
	CheckCompliance(ctx context.Context, companyID, id, stateCode string) (compliance.Report, error)
	AccessLog(ctx context.Context, companyID, id string) ([]accesslog.AccessLogResponse, error)
	Metrics(ctx context.Context, companyID string, req MetricsRequest) (MetricsResponse, error)
	Batch(ctx context.Context, companyID, actorID string, req BatchRequest) (BatchResult, error)
}

type ServiceConfig struct {
	Workers       int
	PublicBaseURL string
}

// ServiceDeps groups the collaborators of the pay stub service. Outbox and
// Cache may be nil.
type ServiceDeps struct {
	Repo      Repository
	Generator *Generator
	Renderer  Renderer
	Mailer    Mailer
	Ledger    accesslog.Service
	Engine    *compliance.Engine
	Outbox    kafka.OutboxRepository
	Cache     *MetricsCache
	Logger    *zap.Logger
}

type service struct {
	repo      Repository
	generator *Generator
	renderer  Renderer
	mailer    Mailer
	ledger    accesslog.Service
	engine    *compliance.Engine
	outbox    kafka.OutboxRepository
	cache     *MetricsCache
	sf        *singleflight.Group
	cfg       ServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(deps ServiceDeps, cfg ServiceConfig) Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := deps.Engine
	if engine == nil {
		engine = compliance.NewEngine(nil)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &service{
		repo:      deps.Repo,
		generator: deps.Generator,
		renderer:  deps.Renderer,
		mailer:    deps.Mailer,
		ledger:    deps.Ledger,
		engine:    engine,
		outbox:    deps.Outbox,
		cache:     deps.Cache,
		sf:        &singleflight.Group{},
		cfg:       cfg,
		logger:    logger.Named("paystub.service"),
		now:       time.Now,
	}
}

func (s *service) Generate(
	ctx context.Context,
	companyID, actorID string,
	req GeneratePayStubsRequest,
) (GenerateResult, error) {
	return s.generator.Generate(ctx, companyID, actorID, req, SourceBatch)
}

func (s *service) QueueGeneration(
	ctx context.Context,
	companyID, actorID string,
	req GeneratePayStubsRequest,
) (QueuedGenerationResponse, error) {
	if s.outbox == nil {
		return QueuedGenerationResponse{}, paystuberrors.ErrAsyncGenerationUnavailable
	}
	if _, err := uuid.Parse(companyID); err != nil {
		return QueuedGenerationResponse{}, paystuberrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(req.PayrollPeriodID); err != nil {
		return QueuedGenerationResponse{}, paystuberrors.ErrInvalidPayrollPeriodID
	}
	employeeIDs, err := normalizeEmployeeIDs(req.EmployeeIDs)
	if err != nil {
		return QueuedGenerationResponse{}, err
	}

	requestID := contextutil.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event := events.PayStubGenerationRequestedEvent{
		EventType:        events.PayStubGenerationRequestedType,
		RequestID:        requestID,
		CompanyID:        companyID,
		PayrollPeriodID:  req.PayrollPeriodID,
		EmployeeIDs:      employeeIDs,
		GeneratePDF:      req.GeneratePDF,
		EmailToEmployees: req.EmailToEmployees,
		RequestedBy:      actorID,
		OccurredAt:       s.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return QueuedGenerationResponse{}, err
	}

	if err := s.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		AggregateType: "payroll_period",
		AggregateID:   req.PayrollPeriodID,
		EventType:     event.EventType,
		Topic:         events.PayStubGenerationRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("queue pay stub generation failed",
			zap.String("payroll_period_id", req.PayrollPeriodID),
			zap.Error(err),
		)
		return QueuedGenerationResponse{}, err
	}

	return QueuedGenerationResponse{
		RequestID:       requestID,
		PayrollPeriodID: req.PayrollPeriodID,
		Status:          "queued",
	}, nil
}

func (s *service) Search(
	ctx context.Context,
	companyID string,
	req SearchPayStubsRequest,
) ([]PayStubResponse, error) {
	filter, err := parseSearchFilter(req)
	if err != nil {
		return nil, err
	}

	stubs, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(stubs), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (PayStubResponse, error) {
	stub, err := s.find(ctx, companyID, id)
	if err != nil {
		return PayStubResponse{}, err
	}
	return mapToResponse(*stub), nil
}

// View returns the stub, records the view and moves the stub to viewed.
func (s *service) View(ctx context.Context, companyID, actorID, id string) (PayStubResponse, error) {
	stub, err := s.find(ctx, companyID, id)
	if err != nil {
		return PayStubResponse{}, err
	}

	s.record(ctx, stub, actorID, accesslog.AccessView)

	if CanTransition(stub.Status, StatusViewed) {
		prevStatus, prevViewedAt := stub.Status, stub.ViewedAt
		now := s.now()
		stub.Status = StatusViewed
		stub.ViewedAt = &now
		if err := s.repo.UpdateStatus(ctx, stub); err != nil {
			s.logger.Warn("mark pay stub viewed failed",
				zap.String("pay_stub_id", id),
				zap.Error(err),
			)
			stub.Status, stub.ViewedAt = prevStatus, prevViewedAt
		}
	}

	return mapToResponse(*stub), nil
}

func (s *service) Download(ctx context.Context, companyID, actorID, id string) (DownloadResult, error) {
	stub, err := s.find(ctx, companyID, id)
	if err != nil {
		return DownloadResult{}, err
	}

	if err := s.ensurePDF(ctx, stub); err != nil {
		return DownloadResult{}, err
	}
	data, err := s.renderer.Open(ctx, *stub.PDFPath)
	if err != nil {
		return DownloadResult{}, paystuberrors.ErrPDFNotAvailable.WithCause(err)
	}

	s.record(ctx, stub, actorID, accesslog.AccessDownload)

	return DownloadResult{
		FileName:    downloadFileName(stub.ID.String()),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *service) Regenerate(ctx context.Context, companyID, actorID, id string) (PayStubResponse, error) {
	stub, err := s.generator.Regenerate(ctx, companyID, actorID, id)
	if err != nil {
		return PayStubResponse{}, err
	}
	return mapToResponse(*stub), nil
}

func (s *service) CheckCompliance(ctx context.Context, companyID, id, stateCode string) (compliance.Report, error) {
	stub, err := s.find(ctx, companyID, id)
	if err != nil {
		return compliance.Report{}, err
	}
	return s.engine.Report(toStatement(stub), stateCode)
}

func (s *service) AccessLog(ctx context.Context, companyID, id string) ([]accesslog.AccessLogResponse, error) {
	if _, err := s.find(ctx, companyID, id); err != nil {
		return nil, err
	}
	return s.ledger.ListByPayStub(ctx, companyID, id)
}

// Metrics aggregates stored stubs and ledger counts. The stub aggregate is
// cached per company and date range until stubs change; ledger counts are
// always read live.
func (s *service) Metrics(ctx context.Context, companyID string, req MetricsRequest) (MetricsResponse, error) {
	from, to, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return MetricsResponse{}, err
	}

	field := metricsField(from, to)
	v, err, _ := s.sf.Do(GetMetricsKey(companyID)+":"+field, func() (any, error) {
		agg, ok := s.cache.Get(ctx, companyID, field)
		if !ok {
			version := s.cache.Version(ctx, companyID)
			stored, err := s.repo.Aggregate(ctx, companyID, from, to)
			if err != nil {
				return nil, err
			}
			s.cache.Set(ctx, companyID, field, version, stored)
			agg = stored
		}

		ids, err := s.repo.ListIDs(ctx, companyID, from, to)
		if err != nil {
			return nil, err
		}
		counts, err := s.ledger.CountByType(ctx, companyID, ids)
		if err != nil {
			return nil, err
		}

		resp := MetricsResponse{
			TotalGenerated:     agg.TotalGenerated,
			TotalDownloaded:    counts[accesslog.AccessDownload],
			TotalViewed:        counts[accesslog.AccessView],
			AverageGrossPay:    decimal.Zero,
			TotalPayrollAmount: agg.TotalGross.Round(2),
			EmployeeCount:      agg.EmployeeCount,
		}
		if agg.TotalGenerated > 0 {
			resp.AverageGrossPay = agg.TotalGross.Div(decimal.NewFromInt(agg.TotalGenerated)).Round(2)
		}
		return resp, nil
	})
	if err != nil {
		return MetricsResponse{}, err
	}
	return v.(MetricsResponse), nil
}

func (s *service) find(ctx context.Context, companyID, id string) (*PayStub, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, paystuberrors.ErrInvalidPayStubID
	}
	return s.repo.FindByIDAndCompany(ctx, companyID, id)
}

// ensurePDF renders the stub when it has no stored PDF yet.
func (s *service) ensurePDF(ctx context.Context, stub *PayStub) error {
	if stub.HasPDF() {
		return nil
	}
	if err := requireLive(stub); err != nil {
		return err
	}
	if err := s.generator.renderPDF(ctx, stub); err != nil {
		s.logger.Error("render pay stub pdf failed",
			zap.String("pay_stub_id", stub.ID.String()),
			zap.Error(err),
		)
		return paystuberrors.ErrPDFRenderFailed.WithCause(err)
	}
	return nil
}

func (s *service) record(ctx context.Context, stub *PayStub, actorID, accessType string) {
	client := contextutil.GetClientInfo(ctx)
	s.ledger.Record(ctx, accesslog.Entry{
		PayStubID:  stub.ID.String(),
		CompanyID:  stub.CompanyID.String(),
		AccessedBy: actorID,
		AccessType: accessType,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
	})
}

func downloadFileName(id string) string {
	return "pay-stub-" + id + ".pdf"
}

func parseDate(v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return nil, paystuberrors.ErrInvalidDateFormat
	}
	return &t, nil
}

func parseDateRange(start, end string) (*time.Time, *time.Time, error) {
	from, err := parseDate(start)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, nil, paystuberrors.ErrInvalidDateRange
	}
	return from, to, nil
}

func parseAmount(field, v string) (*decimal.Decimal, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		return nil, apperror.InvalidField(field)
	}
	return &d, nil
}

func parseSearchFilter(req SearchPayStubsRequest) (PayStubQueryFilter, error) {
	filter := PayStubQueryFilter{
		EmployeeName:      req.EmployeeName,
		EmployeeID:        req.EmployeeID,
		StateJurisdiction: req.StateJurisdiction,
		StubNumber:        strings.TrimSpace(req.StubNumber),
	}

	if req.Status != "" {
		if !IsValidStatus(req.Status) {
			return PayStubQueryFilter{}, paystuberrors.ErrInvalidStatusFilter
		}
		filter.Status = req.Status
	}

	var err error
	filter.PayDateStart, filter.PayDateEnd, err = parseDateRange(req.PayDateStart, req.PayDateEnd)
	if err != nil {
		return PayStubQueryFilter{}, err
	}

	if filter.MinAmount, err = parseAmount("min_amount", req.MinAmount); err != nil {
		return PayStubQueryFilter{}, err
	}
	if filter.MaxAmount, err = parseAmount("max_amount", req.MaxAmount); err != nil {
		return PayStubQueryFilter{}, err
	}
	if filter.MinAmount != nil && filter.MaxAmount != nil && filter.MinAmount.GreaterThan(*filter.MaxAmount) {
		return PayStubQueryFilter{}, paystuberrors.ErrInvalidAmountRange
	}

	return filter, nil
}
