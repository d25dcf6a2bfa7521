//go:generate mockgen -source=contracts.go -destination=assignment_mocks_test.go -package=assignment_test

package assignment

import (
	"context"
	"time"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/ports/assignmenttx"
)

// Store runs lifecycle transactions and serves the non-locking reads.
type Store interface {
	assignmenttx.Runner
	GetAssignment(ctx context.Context, id string) (*domain.Assignment, error)
	FindLatestAssignment(ctx context.Context, bookingID, driverID string) (*domain.Assignment, error)
	ListJobEvents(ctx context.Context, assignmentID string) ([]domain.JobEvent, error)
}

// Notifier enqueues a best-effort driver notification.
type Notifier interface {
	Notify(n domain.Notification)
}

// AuditSink enqueues an audit entry.
type AuditSink interface {
	Record(e domain.AuditEntry)
}

// EligibilityChecker returns the driver profile when the driver may claim at now.
type EligibilityChecker interface {
	Check(ctx context.Context, driverID string, now time.Time) (*domain.DriverProfile, error)
}

// DriverDirectory looks drivers up by id. A missing driver is (nil, nil).
type DriverDirectory interface {
	DriverProfile(ctx context.Context, driverID string) (*domain.DriverProfile, error)
}
