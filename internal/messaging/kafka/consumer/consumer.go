package consumer

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-paystub/internal/shared/apperror"

	"github.com/sethvargo/go-retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	defaultRetryBase = time.Second
	defaultRetryCap  = time.Minute
)

// MessageReader is the subset of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// isPermanent reports whether retrying the message can never succeed, in
// which case it is committed and dropped.
func isPermanent(err error) bool {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus < http.StatusInternalServerError
	}
	return false
}

type consumerConfig struct {
	retryBase time.Duration
	retryCap  time.Duration
}

type Option func(*consumerConfig)

// WithRetryBackoff sets the exponential backoff between attempts at a message
// that failed transiently.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(c *consumerConfig) {
		if base > 0 {
			c.retryBase = base
		}
		if maxDelay >= c.retryBase {
			c.retryCap = maxDelay
		}
	}
}

func newConsumerConfig(opts []Option) consumerConfig {
	cfg := consumerConfig{retryBase: defaultRetryBase, retryCap: defaultRetryCap}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c consumerConfig) backoff() retry.Backoff {
	return retry.WithCappedDuration(c.retryCap, retry.NewExponential(c.retryBase))
}
