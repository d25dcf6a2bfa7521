// Package availability records driver presence and location pings.
package availability

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/juju/clock"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

type presenceStore interface {
	Availability(ctx context.Context, driverID string) (domain.Availability, error)
	SetAvailability(ctx context.Context, a domain.Availability) error
	SaveLocation(ctx context.Context, loc domain.Location) error
	ForgetLocation(ctx context.Context, driverID string) error
}

// Service updates presence outside of any assignment transaction. Writes are
// last-writer-wins and may race with claims.
type Service struct {
	store  presenceStore
	clock  clock.Clock
	logger logx.Logger
}

// NewService creates a new Service.
func NewService(store presenceStore, clk clock.Clock, logger logx.Logger) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Service{store: store, clock: clk, logger: logger}
}

// SetStatus stores the driver's presence. Leaving the tracking state drops the
// last known location.
func (s *Service) SetStatus(ctx context.Context, driverID string, status domain.AvailabilityStatus, consent bool) (domain.Availability, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return domain.Availability{}, apperr.ErrInvalid
	}
	if !status.Valid() {
		return domain.Availability{}, fmt.Errorf("%w: unknown availability status %q", apperr.ErrInvalid, status)
	}

	a := domain.Availability{
		DriverID:        driverID,
		Status:          status,
		LocationConsent: consent,
		UpdatedAt:       s.clock.Now().UTC(),
	}
	if err := s.store.SetAvailability(ctx, a); err != nil {
		return domain.Availability{}, fmt.Errorf("set availability: %w", err)
	}
	if !a.Tracking() {
		if err := s.store.ForgetLocation(ctx, driverID); err != nil {
			s.logger.Warn("forget location failed", logx.String("driver_id", driverID), logx.Err(err))
		}
	}

	s.logger.Info("availability updated",
		logx.String("event", "availability_updated"),
		logx.String("driver_id", driverID),
		logx.String("status", string(status)),
		logx.Bool("location_consent", consent),
	)
	return a, nil
}

// RecordLocation stores a position ping while the driver is online and has
// consented to tracking.
func (s *Service) RecordLocation(ctx context.Context, loc domain.Location) error {
	loc.DriverID = strings.TrimSpace(loc.DriverID)
	if loc.DriverID == "" {
		return apperr.ErrInvalid
	}
	if !validCoordinate(loc.Lat, 90) || !validCoordinate(loc.Lng, 180) {
		return fmt.Errorf("%w: coordinates out of range", apperr.ErrInvalid)
	}

	a, err := s.store.Availability(ctx, loc.DriverID)
	if err != nil {
		return fmt.Errorf("load availability: %w", err)
	}
	if a.Status != domain.AvailabilityOnline {
		return apperr.Forbidden(apperr.ReasonOffline)
	}
	if !a.LocationConsent {
		return apperr.Forbidden(apperr.ReasonNoLocationConsent)
	}

	if err := s.store.SaveLocation(ctx, loc); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	s.logger.Debug("location recorded", logx.String("driver_id", loc.DriverID))
	return nil
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && v >= -limit && v <= limit
}
