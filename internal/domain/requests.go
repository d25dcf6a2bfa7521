package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"service-job-assignment/internal/apperr"
)

// MaxOfferTTL bounds the response window of a single offer.
const MaxOfferTTL = 24 * time.Hour

// OfferTTL converts a window given in seconds, rejecting values outside
// (0, MaxOfferTTL] before they can overflow a time.Duration.
func OfferTTL(seconds int64) (time.Duration, error) {
	limit := int64(MaxOfferTTL / time.Second)
	if seconds <= 0 || seconds > limit {
		return 0, fmt.Errorf("%w: ttlSeconds must be between 1 and %d", apperr.ErrInvalid, limit)
	}
	return time.Duration(seconds) * time.Second, nil
}

// OfferRequest is the input of an offer to a driver.
type OfferRequest struct {
	BookingID string
	DriverID  string
	TTL       time.Duration
	Round     int
	Score     int64
	OfferedBy string
}

// OfferResult is returned by a successful offer.
type OfferResult struct {
	AssignmentID string
	ExpiresAt    time.Time
}

// StepRequest is the input of a progress step.
type StepRequest struct {
	AssignmentID string
	DriverID     string
	Step         string
	Payload      json.RawMessage
	MediaURLs    []string
	Notes        string
}
