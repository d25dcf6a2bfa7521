// Package notify delivers driver notifications on a best-effort basis.
package notify

import (
	"context"

	"service-job-assignment/internal/async"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

// Sink delivers one notification.
type Sink interface {
	Send(ctx context.Context, n domain.Notification) error
}

type counter interface {
	Inc()
}

// Dispatcher queues notifications and sends them in the background.
// Notify never blocks; failures are logged and counted, never returned.
type Dispatcher struct {
	queue *async.Queue[domain.Notification]
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(sink Sink, cfg async.Config, logger logx.Logger, dropped, failed counter) *Dispatcher {
	return &Dispatcher{
		queue: async.New("notifications", cfg, sink.Send, logger, dropped, failed),
	}
}

// Notify enqueues n.
func (d *Dispatcher) Notify(n domain.Notification) {
	d.queue.Push(n)
}

// Run delivers queued notifications until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.queue.Run(ctx)
}
