package domain

import "time"

// BookingStatus is the lifecycle status of a booking.
type BookingStatus string

// Booking statuses relevant to job assignment.
const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Booking is a confirmed move request that needs a driver.
// DriverID is empty while no driver holds the job.
type Booking struct {
	ID          string
	Status      BookingStatus
	DriverID    string
	AmountPence int64
	UpdatedAt   time.Time
}

// Assigned reports whether a driver currently holds the booking.
func (b Booking) Assigned() bool {
	return b.DriverID != ""
}
