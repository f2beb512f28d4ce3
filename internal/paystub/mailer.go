package paystub

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-paystub/internal/events"
	"go-paystub/internal/messaging/kafka"
	"go-paystub/internal/shared/contextutil"

	"github.com/google/uuid"
)

type Mailer interface {
	SendPayStub(ctx context.Context, stub *PayStub) error
}

// OutboxMailer hands stubs to the mail delivery service by writing a
// paystub.email.requested event to the outbox. The worker publishes it.
type OutboxMailer struct {
	outbox kafka.OutboxRepository
	now    func() time.Time
}

func NewOutboxMailer(outbox kafka.OutboxRepository) *OutboxMailer {
	return &OutboxMailer{outbox: outbox, now: time.Now}
}

func (m *OutboxMailer) SendPayStub(ctx context.Context, stub *PayStub) error {
	if !stub.HasPDF() {
		return errors.New("pay stub has no rendered pdf")
	}
	if stub.Employee == nil || stub.Employee.Email == "" {
		return errors.New("employee has no email address")
	}

	event := events.PayStubEmailRequestedEvent{
		EventType:     events.PayStubEmailRequestedType,
		PayStubID:     stub.ID.String(),
		StubNumber:    stub.StubNumber,
		CompanyID:     stub.CompanyID.String(),
		EmployeeID:    stub.EmployeeID.String(),
		EmployeeName:  stub.Employee.FullName,
		EmployeeEmail: stub.Employee.Email,
		PDFPath:       *stub.PDFPath,
		PayDate:       stub.PayDate.Format(dateLayout),
		OccurredAt:    m.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return m.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "pay_stub",
		AggregateID:   stub.ID.String(),
		EventType:     event.EventType,
		Topic:         events.PayStubEmailRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
