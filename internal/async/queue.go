// Package async provides a bounded, best-effort work queue for side effects
// that must never block or fail the operation that produced them.
package async

import (
	"context"
	"sync"
	"time"

	"service-job-assignment/internal/logx"
)

// HandleFunc processes one queued item.
type HandleFunc[T any] func(context.Context, T) error

type counter interface {
	Inc()
}

type nopCounter struct{}

func (nopCounter) Inc() {}

// Config stores Queue settings.
type Config struct {
	Size        int
	Workers     int
	ItemTimeout time.Duration
	// DrainTimeout bounds how long Run keeps processing leftovers after ctx is done.
	DrainTimeout time.Duration
}

// Queue buffers items and hands them to a handler on worker goroutines.
type Queue[T any] struct {
	name    string
	items   chan T
	handle  HandleFunc[T]
	cfg     Config
	logger  logx.Logger
	dropped counter
	failed  counter
}

// New creates a Queue. Counters may be nil.
func New[T any](name string, cfg Config, handle HandleFunc[T], logger logx.Logger, dropped, failed counter) *Queue[T] {
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if dropped == nil {
		dropped = nopCounter{}
	}
	if failed == nil {
		failed = nopCounter{}
	}
	return &Queue[T]{
		name:    name,
		items:   make(chan T, cfg.Size),
		handle:  handle,
		cfg:     cfg,
		logger:  logger.With(logx.String("queue", name)),
		dropped: dropped,
		failed:  failed,
	}
}

// Push enqueues item without blocking and reports whether it was accepted.
func (q *Queue[T]) Push(item T) bool {
	select {
	case q.items <- item:
		return true
	default:
		q.dropped.Inc()
		q.logger.Warn("queue full, item dropped")
		return false
	}
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Run processes items until ctx is done, then drains what is buffered.
func (q *Queue[T]) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < q.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}
	wg.Wait()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.cfg.DrainTimeout)
	defer cancel()
	q.drain(drainCtx)
	return nil
}

func (q *Queue[T]) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.items:
			q.process(ctx, item)
		}
	}
}

func (q *Queue[T]) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(q.items); n > 0 {
				q.logger.Warn("queue drain timed out", logx.Int("left", n))
			}
			return
		case item := <-q.items:
			q.process(ctx, item)
		default:
			return
		}
	}
}

func (q *Queue[T]) process(ctx context.Context, item T) {
	itemCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.cfg.ItemTimeout)
	defer cancel()

	if err := q.handle(itemCtx, item); err != nil {
		q.failed.Inc()
		q.logger.Warn("queue item failed", logx.Any("err", err))
	}
}
