package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-paystub/internal/messaging/kafka"
	"go-paystub/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutboxRepository struct {
	pending []kafka.OutboxEvent
	listErr error
	sent    []string
	failed  map[string]string
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return f.pending, f.listErr
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	messages []kafkago.Message
	failOn   map[string]error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if err, ok := w.failOn[string(m.Key)]; ok {
			return err
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

func header(m kafkago.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProcessPendingEvents_PublishesAndMarks(t *testing.T) {
	repo := &fakeOutboxRepository{pending: []kafka.OutboxEvent{
		{ID: "e1", RequestID: "req-1", AggregateType: "pay_stub", AggregateID: "s1", EventType: "paystub.email.requested", Topic: "t1", Payload: []byte(`{}`)},
		{ID: "e2", AggregateType: "pay_stub", AggregateID: "s2", EventType: "paystub.email.requested", Topic: "t1", Payload: []byte(`{}`)},
	}}
	writer := &fakeWriter{failOn: map[string]error{"s2": errors.New("broker down")}}

	sent, err := producer.ProcessPendingEvents(context.Background(), repo, writer, zap.NewNop())

	assert.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"e1"}, repo.sent)
	assert.Equal(t, "broker down", repo.failed["e2"])

	assert.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "t1", msg.Topic)
	assert.Equal(t, "s1", string(msg.Key))
	assert.Equal(t, "paystub.email.requested", header(msg, "event_type"))
	assert.Equal(t, "req-1", header(msg, "request_id"))
	assert.Equal(t, "e1", header(msg, "outbox_id"))
}

func TestProcessPendingEvents_ListError(t *testing.T) {
	repo := &fakeOutboxRepository{listErr: errors.New("db down")}

	sent, err := producer.ProcessPendingEvents(context.Background(), repo, &fakeWriter{}, zap.NewNop())

	assert.EqualError(t, err, "db down")
	assert.Zero(t, sent)
}

func TestProcessPendingEvents_Empty(t *testing.T) {
	sent, err := producer.ProcessPendingEvents(context.Background(), &fakeOutboxRepository{}, &fakeWriter{}, zap.NewNop())

	assert.NoError(t, err)
	assert.Zero(t, sent)
}
