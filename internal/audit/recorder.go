// Package audit writes lifecycle audit entries off the request path.
package audit

import (
	"context"

	"service-job-assignment/internal/async"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

// Writer persists one audit entry.
type Writer interface {
	Insert(ctx context.Context, e domain.AuditEntry) error
}

type counter interface {
	Inc()
}

// Recorder queues audit entries for a Writer. Record never blocks.
type Recorder struct {
	queue *async.Queue[domain.AuditEntry]
}

// NewRecorder creates a new Recorder.
func NewRecorder(w Writer, cfg async.Config, logger logx.Logger, dropped, failed counter) *Recorder {
	return &Recorder{queue: async.New("audit", cfg, w.Insert, logger, dropped, failed)}
}

// Record enqueues e.
func (r *Recorder) Record(e domain.AuditEntry) {
	r.queue.Push(e)
}

// Run writes queued entries until ctx is done.
func (r *Recorder) Run(ctx context.Context) error {
	return r.queue.Run(ctx)
}
