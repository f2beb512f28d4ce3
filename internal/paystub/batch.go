package paystub

import (
	"context"
	"strings"

	"go-paystub/internal/accesslog"
	paystuberrors "go-paystub/internal/paystub/errors"
	"go-paystub/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	BatchDownload        = "download"
	BatchEmail           = "email"
	BatchRegenerate      = "regenerate"
	BatchComplianceCheck = "compliance_check"
)

const maxBatchSize = 500

// batchHandler runs one operation on one stub and returns its payload.
type batchHandler func(ctx context.Context, companyID, actorID, id string, opts BatchOptions) (any, error)

// BatchStubStatus is the per-item payload of email and regenerate.
type BatchStubStatus struct {
	StubNumber string `json:"stub_number"`
	Status     string `json:"status"`
	Revision   int    `json:"revision"`
}

func (s *service) batchHandlers() map[string]batchHandler {
	return map[string]batchHandler{
		BatchDownload:        s.batchDownload,
		BatchEmail:           s.batchEmail,
		BatchRegenerate:      s.batchRegenerate,
		BatchComplianceCheck: s.batchComplianceCheck,
	}
}

// Batch applies one operation to every id. Each id succeeds or fails on its
// own; results keep the request order.
func (s *service) Batch(ctx context.Context, companyID, actorID string, req BatchRequest) (BatchResult, error) {
	operation := strings.ToLower(strings.TrimSpace(req.Operation))
	handler, ok := s.batchHandlers()[operation]
	if !ok {
		return BatchResult{}, paystuberrors.ErrInvalidOperation.WithDetails(map[string]string{"operation": req.Operation})
	}
	if len(req.PayStubIDs) == 0 {
		return BatchResult{}, paystuberrors.ErrEmptyBatch
	}
	if len(req.PayStubIDs) > maxBatchSize {
		return BatchResult{}, paystuberrors.ErrBatchTooLarge
	}

	results := make([]BatchItemResult, len(req.PayStubIDs))
	var eg errgroup.Group
	eg.SetLimit(s.cfg.Workers)
	for i, id := range req.PayStubIDs {
		i, id := i, id
		eg.Go(func() error {
			results[i] = s.runBatchItem(ctx, handler, operation, companyID, actorID, id, req.Options)
			return nil
		})
	}
	_ = eg.Wait()

	out := BatchResult{
		Operation: operation,
		Total:     len(results),
		Results:   results,
	}
	for _, r := range results {
		if r.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

func (s *service) runBatchItem(
	ctx context.Context,
	handler batchHandler,
	operation, companyID, actorID, id string,
	opts BatchOptions,
) BatchItemResult {
	result := BatchItemResult{PayStubID: id}
	if _, err := uuid.Parse(id); err != nil {
		err := paystuberrors.ErrInvalidPayStubID
		result.ErrorCode, result.ErrorMessage = err.Code, err.Message
		return result
	}

	data, err := handler(ctx, companyID, actorID, id, opts)
	if err != nil {
		s.logger.Warn("batch item failed",
			zap.String("operation", operation),
			zap.String("pay_stub_id", id),
			zap.Error(err),
		)
		result.ErrorCode = apperror.CodeOf(err)
		result.ErrorMessage = err.Error()
		return result
	}

	result.Success = true
	result.Data = data
	return result
}

func (s *service) batchDownload(ctx context.Context, companyID, actorID, id string, _ BatchOptions) (any, error) {
	stub, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePDF(ctx, stub); err != nil {
		return nil, err
	}

	s.record(ctx, stub, actorID, accesslog.AccessDownload)

	return DownloadLink{
		FileName:    downloadFileName(id),
		DownloadURL: strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/v1/paystubs/" + id + "/download",
	}, nil
}

func (s *service) batchEmail(ctx context.Context, companyID, actorID, id string, _ BatchOptions) (any, error) {
	stub, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := requireLive(stub); err != nil {
		return nil, err
	}
	if err := s.ensurePDF(ctx, stub); err != nil {
		s.generator.markError(ctx, stub, err)
		return nil, err
	}
	if err := s.generator.deliverEmail(ctx, stub); err != nil {
		s.generator.markError(ctx, stub, err)
		return nil, paystuberrors.ErrEmailDeliveryFailed.WithCause(err)
	}

	s.record(ctx, stub, actorID, accesslog.AccessEmail)

	return BatchStubStatus{
		StubNumber: stub.StubNumber,
		Status:     stub.Status,
		Revision:   stub.Metadata.Revision,
	}, nil
}

func (s *service) batchRegenerate(ctx context.Context, companyID, actorID, id string, _ BatchOptions) (any, error) {
	stub, err := s.generator.Regenerate(ctx, companyID, actorID, id)
	if err != nil {
		return nil, err
	}
	return BatchStubStatus{
		StubNumber: stub.StubNumber,
		Status:     stub.Status,
		Revision:   stub.Metadata.Revision,
	}, nil
}

// batchComplianceCheck never mutates the stub.
func (s *service) batchComplianceCheck(ctx context.Context, companyID, _, id string, opts BatchOptions) (any, error) {
	stub, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.Check(toStatement(stub), opts.StateCode)
	if err != nil {
		return nil, err
	}
	return result, nil
}
