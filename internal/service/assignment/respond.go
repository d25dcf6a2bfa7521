package assignment

import (
	"context"
	"fmt"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/ports/assignmenttx"
)

// AcceptDeclineHandler resolves a driver's claim or invitation.
type AcceptDeclineHandler struct {
	deps Deps
}

// NewAcceptDeclineHandler creates a new AcceptDeclineHandler.
func NewAcceptDeclineHandler(d Deps) *AcceptDeclineHandler {
	return &AcceptDeclineHandler{deps: d.withDefaults()}
}

// Accept turns the driver's claim on bookingID into an accepted job.
func (h *AcceptDeclineHandler) Accept(ctx context.Context, bookingID, driverID string) (a domain.Assignment, err error) {
	defer func() { h.deps.Metrics.Observe("accept", err) }()

	a, err = h.respond(ctx, bookingID, driverID, domain.EventAccept)
	if err != nil {
		return domain.Assignment{}, err
	}

	h.deps.Logger.Info("job accepted", logx.Transition("job_accepted", a.ID, a.BookingID, a.DriverID)...)
	h.deps.Notifier.Notify(domain.Notification{
		Kind:         domain.NotifyJobAccepted,
		DriverID:     a.DriverID,
		BookingID:    a.BookingID,
		AssignmentID: a.ID,
		At:           a.UpdatedAt,
	})
	h.deps.audit("assignment.accepted", a.ID, driverID, a.UpdatedAt, map[string]any{"bookingId": a.BookingID})
	return a, nil
}

// Decline gives up the driver's claim or invitation on bookingID and frees the booking.
func (h *AcceptDeclineHandler) Decline(ctx context.Context, bookingID, driverID string) (err error) {
	defer func() { h.deps.Metrics.Observe("decline", err) }()

	a, err := h.respond(ctx, bookingID, driverID, domain.EventDecline)
	if err != nil {
		return err
	}

	h.deps.Logger.Info("job declined", logx.Transition("job_declined", a.ID, a.BookingID, a.DriverID)...)
	h.deps.Notifier.Notify(domain.Notification{
		Kind:         domain.NotifyJobDeclined,
		DriverID:     a.DriverID,
		BookingID:    a.BookingID,
		AssignmentID: a.ID,
		At:           a.UpdatedAt,
	})
	h.deps.audit("assignment.declined", a.ID, driverID, a.UpdatedAt, map[string]any{"bookingId": a.BookingID})
	return nil
}

// Current returns the driver's latest assignment on bookingID. A lapsed
// invitation or claim is reported as expired without being written.
func (h *AcceptDeclineHandler) Current(ctx context.Context, bookingID, driverID string) (domain.Assignment, error) {
	var err error
	if bookingID, err = requireID("jobId", bookingID); err != nil {
		return domain.Assignment{}, err
	}
	if driverID, err = requireID("driverId", driverID); err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := h.deps.withTimeout(ctx)
	defer cancel()

	a, err := h.deps.Store.FindLatestAssignment(ctx, bookingID, driverID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if a == nil {
		return domain.Assignment{}, fmt.Errorf("assignment for job %s: %w", bookingID, apperr.ErrNotFound)
	}
	if h.deps.Guard.Check(*a, h.deps.Guard.Now()) != nil {
		a.Status = domain.AssignmentExpired
	}
	return *a, nil
}

func (h *AcceptDeclineHandler) respond(ctx context.Context, bookingID, driverID string, event domain.AssignmentEvent) (domain.Assignment, error) {
	var err error
	if bookingID, err = requireID("jobId", bookingID); err != nil {
		return domain.Assignment{}, err
	}
	if driverID, err = requireID("driverId", driverID); err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := h.deps.withTimeout(ctx)
	defer cancel()

	var (
		out   domain.Assignment
		stale reaped
	)
	now := h.deps.Guard.Now()

	err = h.deps.Store.WithTx(ctx, func(tx assignmenttx.Repository) error {
		booking, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("job %s: %w", bookingID, apperr.ErrNotFound)
		}

		latest, err := tx.LatestAssignment(ctx, booking.ID, driverID)
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("assignment for job %s: %w", booking.ID, apperr.ErrNotFound)
		}
		a, err := tx.LockAssignment(ctx, latest.ID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("assignment %s: %w", latest.ID, apperr.ErrNotFound)
		}

		if a.Status == domain.AssignmentExpired {
			return expiredErr(*a)
		}
		if err := h.deps.Guard.Check(*a, now); err != nil {
			if err := h.deps.Guard.Reap(ctx, tx, a, now); err != nil {
				return err
			}
			stale.set(*a)
			return nil
		}

		if event == domain.EventAccept && a.Status == domain.AssignmentClaimed {
			busy, err := tx.DriverHasAcceptedJob(ctx, driverID)
			if err != nil {
				return err
			}
			if busy {
				return apperr.Forbidden(apperr.ReasonAlreadyHasActiveJob)
			}
		}

		held := a.Status.HoldsBooking()
		if err := a.Apply(event, now); err != nil {
			return err
		}
		if err := tx.UpdateAssignment(ctx, a); err != nil {
			return err
		}
		if event == domain.EventDecline && held {
			if err := tx.DetachDriver(ctx, booking.ID, driverID); err != nil {
				return err
			}
		}
		out = *a
		return nil
	})
	if err != nil {
		return domain.Assignment{}, err
	}
	if stale.ok {
		h.deps.announce(stale, driverID)
		return domain.Assignment{}, expiredErr(stale.assignment)
	}
	return out, nil
}
