package notify

import (
	"context"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

// LogSink writes notifications to the log. Used when no broker is configured.
type LogSink struct {
	logger logx.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger logx.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs n.
func (s *LogSink) Send(_ context.Context, n domain.Notification) error {
	s.logger.Info("notification",
		logx.String("kind", string(n.Kind)),
		logx.String("driver_id", n.DriverID),
		logx.String("booking_id", n.BookingID),
		logx.String("assignment_id", n.AssignmentID),
	)
	return nil
}
