package domain

import (
	"fmt"
	"time"

	"service-job-assignment/internal/apperr"
)

// AssignmentStatus is the closed set of assignment states.
type AssignmentStatus string

// Assignment statuses.
const (
	AssignmentInvited   AssignmentStatus = "invited"
	AssignmentClaimed   AssignmentStatus = "claimed"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentDeclined  AssignmentStatus = "declined"
	AssignmentExpired   AssignmentStatus = "expired"
	AssignmentCompleted AssignmentStatus = "completed"
)

var assignmentStatuses = [...]AssignmentStatus{
	AssignmentInvited, AssignmentClaimed, AssignmentAccepted,
	AssignmentDeclined, AssignmentExpired, AssignmentCompleted,
}

// ActiveAssignmentStatuses are the statuses at most one assignment per booking may hold.
var ActiveAssignmentStatuses = []AssignmentStatus{
	AssignmentInvited, AssignmentClaimed, AssignmentAccepted,
}

// Valid checks if the AssignmentStatus is known.
func (s AssignmentStatus) Valid() bool {
	for _, v := range assignmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether s blocks other assignments on the same booking.
func (s AssignmentStatus) Active() bool {
	return s == AssignmentInvited || s == AssignmentClaimed || s == AssignmentAccepted
}

// Expirable reports whether s is bounded by ExpiresAt.
func (s AssignmentStatus) Expirable() bool {
	return s == AssignmentInvited || s == AssignmentClaimed
}

// Terminal reports whether no transition leaves s.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentDeclined || s == AssignmentExpired || s == AssignmentCompleted
}

// HoldsBooking reports whether an assignment in s owns Booking.DriverID.
func (s AssignmentStatus) HoldsBooking() bool {
	return s == AssignmentClaimed || s == AssignmentAccepted
}

// ParseAssignmentStatus converts a stored value into an AssignmentStatus.
func ParseAssignmentStatus(raw string) (AssignmentStatus, error) {
	s := AssignmentStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown assignment status %q", raw)
	}
	return s, nil
}

// AssignmentEvent triggers a status transition.
type AssignmentEvent uint8

// Assignment events.
const (
	EventClaim AssignmentEvent = iota + 1
	EventAccept
	EventDecline
	EventExpire
	EventComplete
)

func (e AssignmentEvent) String() string {
	switch e {
	case EventClaim:
		return "claim"
	case EventAccept:
		return "accept"
	case EventDecline:
		return "decline"
	case EventExpire:
		return "expire"
	case EventComplete:
		return "complete"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

type transition struct {
	from  AssignmentStatus
	event AssignmentEvent
}

var transitions = map[transition]AssignmentStatus{
	{AssignmentInvited, EventClaim}:     AssignmentClaimed,
	{AssignmentInvited, EventDecline}:   AssignmentDeclined,
	{AssignmentInvited, EventExpire}:    AssignmentExpired,
	{AssignmentClaimed, EventAccept}:    AssignmentAccepted,
	{AssignmentClaimed, EventDecline}:   AssignmentDeclined,
	{AssignmentClaimed, EventExpire}:    AssignmentExpired,
	{AssignmentAccepted, EventComplete}: AssignmentCompleted,
}

// Next returns the status reached from s on e, or apperr.ErrInvalidState.
func (s AssignmentStatus) Next(e AssignmentEvent) (AssignmentStatus, error) {
	next, ok := transitions[transition{from: s, event: e}]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s from %s", apperr.ErrInvalidState, e, s)
	}
	return next, nil
}

// Assignment is one driver's time-bounded hold on one booking.
type Assignment struct {
	ID        string
	BookingID string
	DriverID  string
	Status    AssignmentStatus
	Round     int
	Score     int64
	ExpiresAt time.Time
	ClaimedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overdue reports whether the offer or claim window lapsed before now.
func (a Assignment) Overdue(now time.Time) bool {
	return a.Status.Expirable() && now.After(a.ExpiresAt)
}

// Apply moves the assignment along e.
func (a *Assignment) Apply(e AssignmentEvent, now time.Time) error {
	next, err := a.Status.Next(e)
	if err != nil {
		return err
	}
	a.Status = next
	a.UpdatedAt = now
	if e == EventClaim {
		claimedAt := now
		a.ClaimedAt = &claimedAt
	}
	return nil
}
