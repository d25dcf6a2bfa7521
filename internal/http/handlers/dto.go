package handlers

import (
	"encoding/json"
	"time"
)

type createOfferRequest struct {
	BookingID  string `json:"bookingId"`
	DriverID   string `json:"driverId"`
	TTLSeconds int    `json:"ttlSeconds"`
	Round      int    `json:"round"`
	Score      int64  `json:"score"`
}

type createOfferResponse struct {
	AssignmentID string    `json:"assignmentId"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type claimedAssignmentDTO struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type assignmentRefDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type assignmentDTO struct {
	ID        string     `json:"id"`
	BookingID string     `json:"bookingId"`
	DriverID  string     `json:"driverId"`
	Status    string     `json:"status"`
	Round     int        `json:"round"`
	ExpiresAt time.Time  `json:"expiresAt"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type assignmentEnvelope[T any] struct {
	Assignment T `json:"assignment"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type recordStepRequest struct {
	Step      string          `json:"step"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	MediaURLs []string        `json:"mediaUrls,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

type jobEventDTO struct {
	ID           string          `json:"id"`
	AssignmentID string          `json:"assignmentId"`
	Step         string          `json:"step"`
	Payload      json.RawMessage `json:"payload"`
	MediaURLs    []string        `json:"mediaUrls"`
	Notes        string          `json:"notes"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type eventEnvelope struct {
	Event jobEventDTO `json:"event"`
}

type timelineResponse struct {
	Events []jobEventDTO `json:"events"`
}

type setAvailabilityRequest struct {
	Status          string `json:"status"`
	LocationConsent bool   `json:"locationConsent"`
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}
