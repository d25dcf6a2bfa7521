package expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
	"service-job-assignment/internal/ports/assignmenttx"
)

// Notifier enqueues a best-effort driver notification.
type Notifier interface {
	Notify(n domain.Notification)
}

// AuditSink enqueues an audit entry.
type AuditSink interface {
	Record(e domain.AuditEntry)
}

// Guard decides validity of invited and claimed assignments against the clock.
type Guard struct {
	clock    clock.Clock
	notifier Notifier
	audit    AuditSink
	logger   logx.Logger
	metrics  *metrics.Lifecycle
}

// NewGuard creates a new Guard.
func NewGuard(clk clock.Clock, notifier Notifier, audit AuditSink, logger logx.Logger, m *metrics.Lifecycle) *Guard {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Guard{clock: clk, notifier: notifier, audit: audit, logger: logger, metrics: m}
}

// Now returns the current UTC time of the guard's clock.
func (g *Guard) Now() time.Time {
	return g.clock.Now().UTC()
}

// Check returns apperr.ErrExpired when the window of a has lapsed at now.
func (g *Guard) Check(a domain.Assignment, now time.Time) error {
	if a.Overdue(now) {
		return fmt.Errorf("assignment %s: %w", a.ID, apperr.ErrExpired)
	}
	return nil
}

// Reap expires a and frees its booking. The caller holds the booking lock.
func (g *Guard) Reap(ctx context.Context, tx assignmenttx.Repository, a *domain.Assignment, now time.Time) error {
	held := a.Status.HoldsBooking()
	if err := a.Apply(domain.EventExpire, now); err != nil {
		return err
	}
	if err := tx.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("expire assignment %s: %w", a.ID, err)
	}
	if held {
		if err := tx.DetachDriver(ctx, a.BookingID, a.DriverID); err != nil {
			return fmt.Errorf("release booking %s: %w", a.BookingID, err)
		}
	}
	return nil
}

// Announce emits side effects for a committed expiry.
func (g *Guard) Announce(a domain.Assignment, actor string) {
	g.metrics.Expired()
	g.logger.Info("assignment expired", logx.Transition("assignment_expired", a.ID, a.BookingID, a.DriverID,
		logx.Time("expires_at", a.ExpiresAt),
		logx.String("actor", actor),
	)...)
	expiresAt := a.ExpiresAt
	g.notifier.Notify(domain.Notification{
		Kind:         domain.NotifyOfferExpired,
		DriverID:     a.DriverID,
		BookingID:    a.BookingID,
		AssignmentID: a.ID,
		ExpiresAt:    &expiresAt,
		At:           a.UpdatedAt,
	})
	g.audit.Record(domain.AuditEntry{
		Action:     "assignment.expired",
		EntityType: "assignment",
		EntityID:   a.ID,
		ActorID:    actor,
		Details:    map[string]any{"bookingId": a.BookingID, "driverId": a.DriverID},
		At:         a.UpdatedAt,
	})
}
