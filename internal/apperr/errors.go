package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrAlreadyClaimed is returned when the booking already has an active assignment.
var ErrAlreadyClaimed = fmt.Errorf("%w: job no longer available", ErrConflict)

// ErrDuplicateStep is returned when the step was already recorded for the assignment.
var ErrDuplicateStep = fmt.Errorf("%w: step already recorded", ErrConflict)

// ErrInvalidState indicates a transition that is not allowed from the current status.
var ErrInvalidState = errors.New("invalid state")

// ErrExpired is returned when an offer or claim window has lapsed.
var ErrExpired = errors.New("expired")

// ErrForbidden is the sentinel every *ForbiddenError matches.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates a missing or invalid session.
var ErrUnauthorized = errors.New("unauthorized")

// Reason is a machine-readable code explaining why a driver may not claim a job.
type Reason string

// Known forbidden reasons.
const (
	ReasonOffline              Reason = "offline"
	ReasonOnboardingIncomplete Reason = "onboarding_incomplete"
	ReasonExpiredDocuments     Reason = "expired_documents"
	ReasonExpiredLicense       Reason = "expired_license"
	ReasonExpiredInsurance     Reason = "expired_insurance"
	ReasonAlreadyHasActiveJob  Reason = "already_has_active_job"
	ReasonRole                 Reason = "insufficient_role"
	ReasonNoLocationConsent    Reason = "location_consent_required"
)

// ForbiddenError carries the reason a driver was rejected.
type ForbiddenError struct {
	Reason Reason
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + string(e.Reason)
}

// Is makes errors.Is(err, ErrForbidden) hold for every ForbiddenError.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// Forbidden returns a ForbiddenError with the given reason.
func Forbidden(reason Reason) error {
	return &ForbiddenError{Reason: reason}
}

// ForbiddenReason extracts the reason from err, if any.
func ForbiddenReason(err error) (Reason, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}
