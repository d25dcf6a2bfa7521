package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
)

type profileSource interface {
	DriverProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error)
}

type availabilitySource interface {
	Availability(ctx context.Context, driverID string) (domain.Availability, error)
}

// Checker decides whether a driver may claim a job.
type Checker struct {
	profiles profileSource
	presence availabilitySource
}

// NewChecker creates a new Checker.
func NewChecker(profiles profileSource, presence availabilitySource) *Checker {
	return &Checker{profiles: profiles, presence: presence}
}

// Check loads the driver's eligibility data and returns the profile when the
// driver may claim jobs at now. Rejections are *apperr.ForbiddenError; an
// unknown driver is apperr.ErrNotFound.
func (c *Checker) Check(ctx context.Context, driverID string, now time.Time) (*domain.DriverProfile, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, apperr.ErrInvalid
	}

	profile, err := c.profiles.DriverProfile(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("driver %s: %w", driverID, apperr.ErrNotFound)
	}
	if err := Evaluate(*profile, now); err != nil {
		return nil, err
	}

	availability, err := c.presence.Availability(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if availability.Status != domain.AvailabilityOnline {
		return nil, apperr.Forbidden(apperr.ReasonOffline)
	}
	return profile, nil
}

// Evaluate applies the onboarding and document rules to p as of now.
func Evaluate(p domain.DriverProfile, now time.Time) error {
	if p.Onboarding != domain.OnboardingApproved {
		return apperr.Forbidden(apperr.ReasonOnboardingIncomplete)
	}
	if lapsed(p.LicenseExpiry, now) {
		return apperr.Forbidden(apperr.ReasonExpiredLicense)
	}
	if lapsed(p.InsuranceExpiry, now) {
		return apperr.Forbidden(apperr.ReasonExpiredInsurance)
	}
	for _, doc := range p.Documents {
		if !lapsed(doc.ExpiresAt, now) {
			continue
		}
		switch doc.Kind {
		case domain.DocumentLicense:
			return apperr.Forbidden(apperr.ReasonExpiredLicense)
		case domain.DocumentInsurance:
			return apperr.Forbidden(apperr.ReasonExpiredInsurance)
		default:
			return apperr.Forbidden(apperr.ReasonExpiredDocuments)
		}
	}
	return nil
}

func lapsed(expiry *time.Time, now time.Time) bool {
	return expiry != nil && !now.Before(*expiry)
}
