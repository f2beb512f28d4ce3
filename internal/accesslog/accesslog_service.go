package accesslog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultWriteTimeout = 5 * time.Second
	// writes beyond this many in flight run on the caller's goroutine
	maxPendingWrites = 64
)

type Service interface {
	// Record appends an entry in the background. It never fails the caller:
	// write errors are logged and dropped.
	Record(ctx context.Context, entry Entry)
	// Wait blocks until every write started by Record has finished.
	Wait()
	ListByPayStub(ctx context.Context, companyID, payStubID string) ([]AccessLogResponse, error)
	CountByType(ctx context.Context, companyID string, payStubIDs []string) (map[string]int64, error)
}

type service struct {
	repo    Repository
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
	pending *semaphore.Weighted
	wg      sync.WaitGroup
}

func NewService(repo Repository, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:    repo,
		logger:  logger.Named("accesslog.service"),
		timeout: defaultWriteTimeout,
		now:     time.Now,
		pending: semaphore.NewWeighted(maxPendingWrites),
	}
}

func (s *service) Record(ctx context.Context, entry Entry) {
	log := s.logger.With(
		zap.String("pay_stub_id", entry.PayStubID),
		zap.String("access_type", entry.AccessType),
	)

	if !IsValidAccessType(entry.AccessType) {
		log.Warn("dropping access log entry with unknown access type")
		return
	}
	stubID, err := uuid.Parse(entry.PayStubID)
	if err != nil {
		log.Warn("dropping access log entry with invalid pay stub id", zap.Error(err))
		return
	}
	companyID, err := uuid.Parse(entry.CompanyID)
	if err != nil {
		log.Warn("dropping access log entry with invalid company id", zap.Error(err))
		return
	}

	accessedBy := entry.AccessedBy
	if accessedBy == "" {
		accessedBy = "anonymous"
	}

	log = log.With(zap.String("accessed_by", accessedBy))
	record := &AccessLog{
		ID:         uuid.New(),
		PayStubID:  stubID,
		CompanyID:  companyID,
		AccessedBy: accessedBy,
		AccessType: entry.AccessType,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		AccessedAt: s.now().UTC(),
	}

	// The write outlives the request that triggered it.
	writeCtx := context.WithoutCancel(ctx)
	if !s.pending.TryAcquire(1) {
		s.write(writeCtx, record, log)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.pending.Release(1)
		s.write(writeCtx, record, log)
	}()
}

func (s *service) write(ctx context.Context, record *AccessLog, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Append(ctx, record); err != nil {
		log.Error("append access log failed", zap.Error(err))
	}
}

func (s *service) Wait() {
	s.wg.Wait()
}

func (s *service) ListByPayStub(ctx context.Context, companyID, payStubID string) ([]AccessLogResponse, error) {
	logs, err := s.repo.ListByPayStub(ctx, companyID, payStubID)
	if err != nil {
		return nil, err
	}

	resp := make([]AccessLogResponse, len(logs))
	for i, l := range logs {
		resp[i] = mapToResponse(l)
	}
	return resp, nil
}

func (s *service) CountByType(ctx context.Context, companyID string, payStubIDs []string) (map[string]int64, error) {
	return s.repo.CountByType(ctx, companyID, payStubIDs)
}
