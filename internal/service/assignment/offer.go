package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/ports/assignmenttx"
)

// OfferManager creates time-limited invitations.
type OfferManager struct {
	deps    Deps
	drivers DriverDirectory
}

// NewOfferManager creates a new OfferManager.
func NewOfferManager(d Deps, drivers DriverDirectory) *OfferManager {
	return &OfferManager{deps: d.withDefaults(), drivers: drivers}
}

// CreateOffer invites req.DriverID to req.BookingID for req.TTL. The booking is
// left untouched; an overdue active assignment on it is expired first.
func (m *OfferManager) CreateOffer(ctx context.Context, req domain.OfferRequest) (res domain.OfferResult, err error) {
	defer func() { m.deps.Metrics.Observe("offer", err) }()

	if req, err = normalizeOffer(req); err != nil {
		return domain.OfferResult{}, err
	}

	ctx, cancel := m.deps.withTimeout(ctx)
	defer cancel()

	driver, err := m.drivers.DriverProfile(ctx, req.DriverID)
	if err != nil {
		return domain.OfferResult{}, fmt.Errorf("load driver: %w", err)
	}
	if driver == nil {
		return domain.OfferResult{}, fmt.Errorf("driver %s: %w", req.DriverID, apperr.ErrNotFound)
	}

	var (
		offer domain.Assignment
		stale reaped
	)
	now := m.deps.Guard.Now()

	err = m.deps.Store.WithTx(ctx, func(tx assignmenttx.Repository) error {
		booking, err := tx.LockBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return fmt.Errorf("booking %s: %w", req.BookingID, apperr.ErrNotFound)
		}
		if booking.Status != domain.BookingConfirmed {
			return fmt.Errorf("%w: booking %s is %s", apperr.ErrInvalidState, booking.ID, booking.Status)
		}

		active, err := tx.ActiveAssignment(ctx, booking.ID)
		if err != nil {
			return err
		}
		if active != nil {
			if m.deps.Guard.Check(*active, now) == nil {
				return fmt.Errorf("%w: booking %s already offered", apperr.ErrConflict, booking.ID)
			}
			if active.Status.HoldsBooking() && booking.DriverID == active.DriverID {
				booking.DriverID = ""
			}
			if err := m.deps.Guard.Reap(ctx, tx, active, now); err != nil {
				return err
			}
			stale.set(*active)
		}
		if booking.Assigned() {
			return fmt.Errorf("%w: booking %s already assigned", apperr.ErrConflict, booking.ID)
		}

		offer = domain.Assignment{
			ID:        uuid.NewString(),
			BookingID: booking.ID,
			DriverID:  req.DriverID,
			Status:    domain.AssignmentInvited,
			Round:     req.Round,
			Score:     req.Score,
			ExpiresAt: now.Add(req.TTL),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.InsertAssignment(ctx, &offer)
	})
	if err != nil {
		return domain.OfferResult{}, err
	}

	m.deps.announce(stale, req.OfferedBy)

	m.deps.Logger.Info("job offered", logx.Transition("job_offered", offer.ID, offer.BookingID, offer.DriverID,
		logx.Int("round", offer.Round),
		logx.Time("expires_at", offer.ExpiresAt),
	)...)
	expiresAt := offer.ExpiresAt
	m.deps.Notifier.Notify(domain.Notification{
		Kind:         domain.NotifyJobOffered,
		DriverID:     offer.DriverID,
		BookingID:    offer.BookingID,
		AssignmentID: offer.ID,
		ExpiresAt:    &expiresAt,
		At:           now,
	})
	m.deps.audit("assignment.offered", offer.ID, req.OfferedBy, now, map[string]any{
		"bookingId": offer.BookingID,
		"driverId":  offer.DriverID,
		"round":     offer.Round,
		"score":     offer.Score,
	})

	return domain.OfferResult{AssignmentID: offer.ID, ExpiresAt: offer.ExpiresAt}, nil
}

func normalizeOffer(req domain.OfferRequest) (domain.OfferRequest, error) {
	var err error
	if req.BookingID, err = requireID("bookingId", req.BookingID); err != nil {
		return req, err
	}
	if req.DriverID, err = requireID("driverId", req.DriverID); err != nil {
		return req, err
	}
	if req.TTL <= 0 || req.TTL > domain.MaxOfferTTL {
		return req, fmt.Errorf("%w: ttl must be positive and at most %s", apperr.ErrInvalid, domain.MaxOfferTTL)
	}
	if req.Round < 0 || req.Score < 0 {
		return req, fmt.Errorf("%w: round and score must not be negative", apperr.ErrInvalid)
	}
	if req.Round == 0 {
		req.Round = 1
	}
	return req, nil
}
