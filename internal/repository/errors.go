package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names the service maps to domain errors.
const (
	constraintOneActivePerBooking  = "assignments_one_active_per_booking"
	constraintOneAcceptedPerDriver = "assignments_one_accepted_per_driver"
	constraintStepOncePerJob       = "job_events_assignment_step_key"
)

// IsDuplicate - signals that the error is a duplicate key violation.
func IsDuplicate(err error) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505"
}

// IsNotFound - signals that the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// violates reports whether err is a unique violation of the named constraint.
func violates(err error, constraint string) bool {
	var pgerr *pgconn.PgError
	return errors.As(err, &pgerr) && pgerr.Code == "23505" && pgerr.ConstraintName == constraint
}
