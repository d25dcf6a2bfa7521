package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"service-job-assignment/internal/apperr"
)

// Lifecycle counts assignment operations by outcome. A nil *Lifecycle is a no-op.
type Lifecycle struct {
	operations *prometheus.CounterVec
	expired    prometheus.Counter
}

// NewLifecycle creates unregistered lifecycle collectors.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assignment_operations_total",
			Help: "Assignment lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "assignments_expired_total",
			Help: "Assignments moved to expired, lazily or by the sweeper",
		}),
	}
}

// Observe records one operation result.
func (l *Lifecycle) Observe(operation string, err error) {
	if l == nil {
		return
	}
	l.operations.WithLabelValues(operation, Outcome(err)).Inc()
}

// Expired records one expired assignment.
func (l *Lifecycle) Expired() {
	if l == nil {
		return
	}
	l.expired.Inc()
}

// Outcome maps an operation error to a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrInvalid):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, apperr.ErrDuplicateStep):
		return "duplicate_step"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperr.ErrExpired):
		return "expired"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
