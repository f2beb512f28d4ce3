package consumer

import (
	"context"
	"encoding/json"

	"go-paystub/internal/events"
	"go-paystub/internal/paystub"
	"go-paystub/internal/shared/contextutil"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

type PayStubGenerator interface {
	Generate(
		ctx context.Context,
		companyID, actorID string,
		req paystub.GeneratePayStubsRequest,
		source string,
	) (paystub.GenerateResult, error)
}

// ConsumePayStubGenerationRequested runs queued generation requests. A
// transient failure is retried with backoff before the next message is
// fetched, so the partition never commits past it. Permanent failures are
// committed and skipped.
func ConsumePayStubGenerationRequested(
	ctx context.Context,
	reader MessageReader,
	generator PayStubGenerator,
	logger *zap.Logger,
	opts ...Option,
) {
	cfg := newConsumerConfig(opts)
	log := logger.Named("kafka.consumer.paystub_generation")
	log.Info("pay stub generation consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("pay stub generation consumer stopped")
				return
			}
			log.Error("fetch pay stub generation message failed", zap.Error(err))
			continue
		}

		var event events.PayStubGenerationRequestedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode pay stub generation event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		reqLog := log.With(
			zap.String("request_id", event.RequestID),
			zap.String("company_id", event.CompanyID),
			zap.String("payroll_period_id", event.PayrollPeriodID),
		)
		msgCtx := contextutil.WithRequestID(ctx, event.RequestID)
		msgCtx = contextutil.WithLogger(msgCtx, reqLog)

		req := paystub.GeneratePayStubsRequest{
			PayrollPeriodID:  event.PayrollPeriodID,
			EmployeeIDs:      event.EmployeeIDs,
			GeneratePDF:      event.GeneratePDF,
			EmailToEmployees: event.EmailToEmployees,
		}

		var result paystub.GenerateResult
		attempt := 0
		err = retry.Do(msgCtx, cfg.backoff(), func(ctx context.Context) error {
			attempt++
			res, err := generator.Generate(ctx, event.CompanyID, event.RequestedBy, req, paystub.SourceAsync)
			if err == nil {
				result = res
				return nil
			}
			if isPermanent(err) {
				return err
			}
			reqLog.Error("pay stub generation failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		})
		if err != nil {
			if ctx.Err() != nil {
				reqLog.Info("pay stub generation consumer stopped before the request succeeded")
				return
			}
			reqLog.Warn("pay stub generation request rejected, skipping", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			reqLog.Error("commit pay stub generation message failed", zap.Error(err))
			continue
		}

		reqLog.Info("pay stub generation completed",
			zap.Int("generated_count", result.GeneratedCount),
			zap.Int("failed_count", result.FailedCount),
		)
	}
}
