package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/ports/assignmenttx"
)

// DefaultClaimTTL is how long a claim stays valid before it must be accepted.
const DefaultClaimTTL = 5 * time.Minute

// ClaimCoordinator grants exclusive, time-limited ownership of a booking to one driver.
type ClaimCoordinator struct {
	deps     Deps
	checker  EligibilityChecker
	claimTTL time.Duration
}

// NewClaimCoordinator creates a new ClaimCoordinator.
func NewClaimCoordinator(d Deps, checker EligibilityChecker, claimTTL time.Duration) *ClaimCoordinator {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &ClaimCoordinator{deps: d.withDefaults(), checker: checker, claimTTL: claimTTL}
}

// Claim gives driverID the booking. Of concurrent claims on one booking exactly
// one succeeds; the others get apperr.ErrAlreadyClaimed. The driver's own open
// invitation is converted in place, any other active assignment blocks the claim.
func (c *ClaimCoordinator) Claim(ctx context.Context, bookingID, driverID string) (claimed domain.Assignment, err error) {
	defer func() { c.deps.Metrics.Observe("claim", err) }()

	if bookingID, err = requireID("jobId", bookingID); err != nil {
		return domain.Assignment{}, err
	}
	if driverID, err = requireID("driverId", driverID); err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := c.deps.withTimeout(ctx)
	defer cancel()

	now := c.deps.Guard.Now()
	if _, err := c.checker.Check(ctx, driverID, now); err != nil {
		return domain.Assignment{}, err
	}

	var stale reaped
	err = c.deps.Store.WithTx(ctx, func(tx assignmenttx.Repository) error {
		booking, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("job %s: %w", bookingID, apperr.ErrNotFound)
		}
		if booking.Status != domain.BookingConfirmed {
			return fmt.Errorf("job %s is %s: %w", booking.ID, booking.Status, apperr.ErrAlreadyClaimed)
		}

		busy, err := tx.DriverHasAcceptedJob(ctx, driverID)
		if err != nil {
			return err
		}
		if busy {
			return apperr.Forbidden(apperr.ReasonAlreadyHasActiveJob)
		}

		active, err := tx.ActiveAssignment(ctx, booking.ID)
		if err != nil {
			return err
		}
		switch {
		case active == nil:
			if booking.Assigned() {
				return fmt.Errorf("job %s: %w", booking.ID, apperr.ErrAlreadyClaimed)
			}
			claimed = domain.Assignment{
				ID:        uuid.NewString(),
				BookingID: booking.ID,
				DriverID:  driverID,
				Status:    domain.AssignmentClaimed,
				Round:     1,
				Score:     booking.AmountPence,
				ExpiresAt: now.Add(c.claimTTL),
				ClaimedAt: &now,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.AttachDriver(ctx, booking.ID, driverID); err != nil {
				return err
			}
			return tx.InsertAssignment(ctx, &claimed)

		case c.deps.Guard.Check(*active, now) != nil:
			if err := c.deps.Guard.Reap(ctx, tx, active, now); err != nil {
				return err
			}
			stale.set(*active)
			return nil

		case active.DriverID == driverID && active.Status == domain.AssignmentInvited:
			claimed = *active
			if err := claimed.Apply(domain.EventClaim, now); err != nil {
				return err
			}
			claimed.ExpiresAt = now.Add(c.claimTTL)
			if err := tx.AttachDriver(ctx, booking.ID, driverID); err != nil {
				return err
			}
			return tx.UpdateAssignment(ctx, &claimed)

		default:
			return fmt.Errorf("job %s: %w", booking.ID, apperr.ErrAlreadyClaimed)
		}
	})
	if err != nil {
		return domain.Assignment{}, err
	}
	if stale.ok {
		c.deps.announce(stale, driverID)
		return domain.Assignment{}, expiredErr(stale.assignment)
	}

	c.deps.Logger.Info("job claimed", logx.Transition("job_claimed", claimed.ID, claimed.BookingID, driverID,
		logx.Time("expires_at", claimed.ExpiresAt),
	)...)
	expiresAt := claimed.ExpiresAt
	c.deps.Notifier.Notify(domain.Notification{
		Kind:         domain.NotifyJobClaimed,
		DriverID:     driverID,
		BookingID:    claimed.BookingID,
		AssignmentID: claimed.ID,
		ExpiresAt:    &expiresAt,
		At:           now,
	})
	c.deps.audit("assignment.claimed", claimed.ID, driverID, now, map[string]any{
		"bookingId": claimed.BookingID,
		"round":     claimed.Round,
	})

	return claimed, nil
}
