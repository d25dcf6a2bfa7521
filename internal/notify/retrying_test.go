package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/testutil/testlog"
)

type fakeSink struct {
	calls int32
	fn    func(call int32) error
}

func (f *fakeSink) Send(context.Context, domain.Notification) error {
	return f.fn(atomic.AddInt32(&f.calls, 1))
}

type counterStub struct{ n int64 }

func (c *counterStub) Inc()         { atomic.AddInt64(&c.n, 1) }
func (c *counterStub) Count() int64 { return atomic.LoadInt64(&c.n) }

var offer = domain.Notification{Kind: domain.NotifyJobOffered, DriverID: "d1", BookingID: "b1"}

func TestRetryingSink_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	next := &fakeSink{fn: func(call int32) error {
		if call < 3 {
			return sarama.ErrLeaderNotAvailable
		}
		return nil
	}}
	ctr := &counterStub{}
	rec := testlog.New()
	s := NewRetryingSink(next, rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})

	require.NoError(t, s.Send(context.Background(), offer))
	require.Equal(t, int32(3), atomic.LoadInt32(&next.calls))
	require.Equal(t, int64(2), ctr.Count())
	require.Len(t, rec.Entries(), 2)
}

func TestRetryingSink_NoRetryOnPermanent(t *testing.T) {
	t.Parallel()

	next := &fakeSink{fn: func(int32) error { return Permanent(errors.New("bad payload")) }}
	ctr := &counterStub{}
	s := NewRetryingSink(next, testlog.New().Logger(), ctr, RetryConfig{MaxAttempts: 5})

	err := s.Send(context.Background(), offer)
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&next.calls))
	require.Zero(t, ctr.Count())
}

func TestRetryingSink_NoRetryOnMessageTooLarge(t *testing.T) {
	t.Parallel()

	next := &fakeSink{fn: func(int32) error { return sarama.ErrMessageSizeTooLarge }}
	s := NewRetryingSink(next, testlog.New().Logger(), nil, RetryConfig{MaxAttempts: 3})

	require.ErrorIs(t, s.Send(context.Background(), offer), sarama.ErrMessageSizeTooLarge)
	require.Equal(t, int32(1), atomic.LoadInt32(&next.calls))
}

func TestRetryingSink_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	next := &fakeSink{fn: func(int32) error { return boom }}
	ctr := &counterStub{}
	s := NewRetryingSink(next, testlog.New().Logger(), ctr, RetryConfig{MaxAttempts: 3})

	require.ErrorIs(t, s.Send(context.Background(), offer), boom)
	require.Equal(t, int32(3), atomic.LoadInt32(&next.calls))
	require.Equal(t, int64(2), ctr.Count())
}

func TestRetryingSink_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	next := &fakeSink{fn: func(int32) error {
		cancel()
		return errors.New("transient")
	}}
	s := NewRetryingSink(next, testlog.New().Logger(), nil, RetryConfig{
		MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour,
	})

	require.Error(t, s.Send(ctx, offer))
	require.Equal(t, int32(1), atomic.LoadInt32(&next.calls))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	require.Equal(t, base, backoff(base, time.Second, 1))
	require.Equal(t, 400*time.Millisecond, backoff(base, time.Second, 3))
	require.Equal(t, time.Second, backoff(base, time.Second, 6))
}
