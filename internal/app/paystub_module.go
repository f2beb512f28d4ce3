package app

import (
	"database/sql"

	"go-paystub/internal/accesslog"
	"go-paystub/internal/compliance"
	"go-paystub/internal/messaging/kafka"
	"go-paystub/internal/payrollperiod"
	"go-paystub/internal/paystub"
	"go-paystub/internal/shared/config"
	"go-paystub/internal/shared/counter"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// payStubModule holds the pay stub collaborators shared by the api and the
// consumer binaries.
type payStubModule struct {
	repo      paystub.Repository
	generator *paystub.Generator
	renderer  paystub.Renderer
	mailer    paystub.Mailer
	outbox    kafka.OutboxRepository
	cache     *paystub.MetricsCache
	ledger    accesslog.Service
}

func newPayStubModule(
	cfg *config.Config,
	sqlDB *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) payStubModule {
	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	repo := paystub.NewRepository(gormDB, counter.NewRepository(gormDB))
	renderer := paystub.NewFileRenderer(cfg.PayStub.StorageDir)
	mailer := paystub.NewOutboxMailer(outboxRepo)
	cache := paystub.NewMetricsCache(rdb, cfg.PayStub.MetricsCacheTTL, logger)

	generator := paystub.NewGenerator(
		payrollperiod.NewRepository(gormDB),
		repo,
		renderer,
		mailer,
		paystub.GeneratorConfig{
			Workers:             cfg.PayStub.GenerationWorkers,
			ExternalCallTimeout: cfg.PayStub.ExternalCallTimeout,
			ComplianceVersion:   cfg.PayStub.ComplianceVersion,
		},
		paystub.WithGeneratorLogger(logger),
		paystub.WithMetricsInvalidator(cache),
	)

	return payStubModule{
		repo:      repo,
		generator: generator,
		renderer:  renderer,
		mailer:    mailer,
		outbox:    outboxRepo,
		cache:     cache,
		ledger:    accesslog.NewService(accesslog.NewRepository(gormDB), logger),
	}
}

func (m payStubModule) service(cfg *config.Config, logger *zap.Logger) paystub.Service {
	return paystub.NewService(paystub.ServiceDeps{
		Repo:      m.repo,
		Generator: m.generator,
		Renderer:  m.renderer,
		Mailer:    m.mailer,
		Ledger:    m.ledger,
		Engine:    compliance.NewEngine(compliance.DefaultStateRegistry()),
		Outbox:    m.outbox,
		Cache:     m.cache,
		Logger:    logger,
	}, paystub.ServiceConfig{
		Workers:       cfg.PayStub.GenerationWorkers,
		PublicBaseURL: cfg.PayStub.PublicBaseURL,
	})
}
