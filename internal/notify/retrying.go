package notify

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

// PermanentError marks a delivery failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError.
func Permanent(err error) error {
	return PermanentError{Err: err}
}

// RetryConfig describes RetryingSink backoff.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingSink retries transient failures of the next sink with exponential backoff.
type RetryingSink struct {
	next    Sink
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingSink wraps next.
func NewRetryingSink(next Sink, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingSink {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &RetryingSink{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Send delivers n, retrying while the error is transient and ctx allows.
func (s *RetryingSink) Send(ctx context.Context, n domain.Notification) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := s.next.Send(ctx, n)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == s.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(s.cfg.BaseDelay, s.cfg.MaxDelay, attempt)
		if s.retries != nil {
			s.retries.Inc()
		}
		s.logger.Warn("notification retry",
			logx.String("kind", string(n.Kind)),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Any("err", err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perm PermanentError
	if errors.As(err, &perm) {
		return false
	}
	var kerr sarama.KError
	if errors.As(err, &kerr) {
		switch kerr {
		case sarama.ErrMessageSizeTooLarge,
			sarama.ErrInvalidMessage,
			sarama.ErrTopicAuthorizationFailed:
			return false
		}
	}
	return true
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
