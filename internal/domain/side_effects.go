package domain

import "time"

// NotificationKind identifies a driver-facing message template.
type NotificationKind string

// Notification kinds.
const (
	NotifyJobOffered   NotificationKind = "job_offered"
	NotifyJobClaimed   NotificationKind = "job_claimed"
	NotifyJobAccepted  NotificationKind = "job_accepted"
	NotifyJobDeclined  NotificationKind = "job_declined"
	NotifyOfferExpired NotificationKind = "offer_expired"
	NotifyStepRecorded NotificationKind = "job_step_recorded"
	NotifyJobCompleted NotificationKind = "job_completed"
)

// Notification is a best-effort push to a driver.
type Notification struct {
	Kind         NotificationKind `json:"kind"`
	DriverID     string           `json:"driverId"`
	BookingID    string           `json:"bookingId"`
	AssignmentID string           `json:"assignmentId,omitempty"`
	Step         Step             `json:"step,omitempty"`
	ExpiresAt    *time.Time       `json:"expiresAt,omitempty"`
	At           time.Time        `json:"at"`
}

// AuditEntry records a successful lifecycle transition.
type AuditEntry struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	Details    map[string]any
	At         time.Time
}
