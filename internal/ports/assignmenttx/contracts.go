package assignmenttx

import (
	"context"

	"service-job-assignment/internal/domain"
)

// BookingController reads and writes Booking.status and Booking.driverId.
type BookingController interface {
	// LockBooking returns the booking row locked for the rest of the transaction, or nil.
	LockBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	// AttachDriver sets driverId on a CONFIRMED, unassigned booking.
	// It returns apperr.ErrAlreadyClaimed when no row matched.
	AttachDriver(ctx context.Context, bookingID, driverID string) error
	// DetachDriver clears driverId if it still points to driverID.
	DetachDriver(ctx context.Context, bookingID, driverID string) error
	// CompleteBooking marks the booking COMPLETED.
	CompleteBooking(ctx context.Context, bookingID string) error
}

// AssignmentStore persists assignments and job events.
type AssignmentStore interface {
	ActiveAssignment(ctx context.Context, bookingID string) (*domain.Assignment, error)
	LatestAssignment(ctx context.Context, bookingID, driverID string) (*domain.Assignment, error)
	LockAssignment(ctx context.Context, id string) (*domain.Assignment, error)
	DriverHasAcceptedJob(ctx context.Context, driverID string) (bool, error)
	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	UpdateAssignment(ctx context.Context, a *domain.Assignment) error
	StepRecorded(ctx context.Context, assignmentID string, step domain.Step) (bool, error)
	InsertJobEvent(ctx context.Context, e *domain.JobEvent) error
}

// Repository is the transaction-scoped view of both stores.
type Repository interface {
	BookingController
	AssignmentStore
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
