package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/ports/assignmenttx"
)

const assignmentColumns = `id, booking_id, driver_id, status, round, score, expires_at, claimed_at, created_at, updated_at`

// AssignmentRepo represents assignment repository.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(tx assignmenttx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				panic(rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAssignment returns an assignment by id, or nil.
func (r *AssignmentRepo) GetAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get assignment %q: %w", id, err)
	}
	return a, nil
}

// FindLatestAssignment returns the newest assignment of driverID on bookingID, or nil.
func (r *AssignmentRepo) FindLatestAssignment(ctx context.Context, bookingID, driverID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE booking_id = $1 AND driver_id = $2
        ORDER BY created_at DESC
        LIMIT 1
    `, bookingID, driverID))
	if err != nil {
		return nil, fmt.Errorf("find assignment for booking %q: %w", bookingID, err)
	}
	return a, nil
}

// ListJobEvents returns the timeline of an assignment in insertion order.
func (r *AssignmentRepo) ListJobEvents(ctx context.Context, assignmentID string) ([]domain.JobEvent, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, assignment_id, step, payload, media_urls, notes, created_by, created_at
        FROM job_events
        WHERE assignment_id = $1
        ORDER BY seq
    `, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list job events %q: %w", assignmentID, err)
	}
	defer rows.Close()

	out := make([]domain.JobEvent, 0, len(domain.Steps))
	for rows.Next() {
		var (
			e       domain.JobEvent
			step    string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.AssignmentID, &step, &payload, &e.MediaURLs, &e.Notes, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Step = domain.Step(step)
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListOverdue returns up to limit invited or claimed assignments whose window
// lapsed before now, oldest first. Rows are not locked.
func (r *AssignmentRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Assignment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE status IN ('invited', 'claimed') AND expires_at < $1
        ORDER BY expires_at
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// TxRepo runs booking, assignment and job event statements inside one transaction.
type TxRepo struct {
	tx pgx.Tx
}

// LockBooking - select booking row for update.
func (r *TxRepo) LockBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var (
		b        domain.Booking
		status   string
		driverID *string
	)
	err := r.tx.QueryRow(ctx, `
        SELECT id, status, driver_id, amount_pence, updated_at
        FROM bookings
        WHERE id = $1
        FOR UPDATE
    `, bookingID).Scan(&b.ID, &status, &driverID, &b.AmountPence, &b.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock booking %q: %w", bookingID, err)
	}
	b.Status = domain.BookingStatus(status)
	if driverID != nil {
		b.DriverID = *driverID
	}
	return &b, nil
}

// AttachDriver - set driver on a confirmed, unassigned booking.
func (r *TxRepo) AttachDriver(ctx context.Context, bookingID, driverID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE bookings
        SET driver_id = $2, updated_at = now()
        WHERE id = $1 AND status = $3 AND driver_id IS NULL
    `, bookingID, driverID, string(domain.BookingConfirmed))
	if err != nil {
		return fmt.Errorf("attach driver to booking %q: %w", bookingID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrAlreadyClaimed
	}
	return nil
}

// DetachDriver - clear the booking driver if it is still driverID.
func (r *TxRepo) DetachDriver(ctx context.Context, bookingID, driverID string) error {
	_, err := r.tx.Exec(ctx, `
        UPDATE bookings
        SET driver_id = NULL, updated_at = now()
        WHERE id = $1 AND driver_id = $2
    `, bookingID, driverID)
	if err != nil {
		return fmt.Errorf("detach driver from booking %q: %w", bookingID, err)
	}
	return nil
}

// CompleteBooking - mark booking completed. driver_id is kept as the record
// of who did the job; the active-assignment rule covers CONFIRMED bookings only.
func (r *TxRepo) CompleteBooking(ctx context.Context, bookingID string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE bookings
        SET status = $2, updated_at = now()
        WHERE id = $1
    `, bookingID, string(domain.BookingCompleted))
	if err != nil {
		return fmt.Errorf("complete booking %q: %w", bookingID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("booking %q not found", bookingID)
	}
	return nil
}

// ActiveAssignment - the invited, claimed or accepted assignment of a booking.
func (r *TxRepo) ActiveAssignment(ctx context.Context, bookingID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE booking_id = $1 AND status IN ('invited', 'claimed', 'accepted')
        FOR UPDATE
    `, bookingID))
	if err != nil {
		return nil, fmt.Errorf("active assignment of booking %q: %w", bookingID, err)
	}
	return a, nil
}

// LatestAssignment - newest assignment of a driver on a booking.
func (r *TxRepo) LatestAssignment(ctx context.Context, bookingID, driverID string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx, `
        SELECT `+assignmentColumns+`
        FROM assignments
        WHERE booking_id = $1 AND driver_id = $2
        ORDER BY created_at DESC
        LIMIT 1
    `, bookingID, driverID))
	if err != nil {
		return nil, fmt.Errorf("latest assignment of booking %q: %w", bookingID, err)
	}
	return a, nil
}

// LockAssignment - select assignment row for update.
func (r *TxRepo) LockAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	a, err := scanAssignment(r.tx.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock assignment %q: %w", id, err)
	}
	return a, nil
}

// DriverHasAcceptedJob - whether the driver holds an accepted assignment.
func (r *TxRepo) DriverHasAcceptedJob(ctx context.Context, driverID string) (bool, error) {
	var busy bool
	err := r.tx.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM assignments WHERE driver_id = $1 AND status = 'accepted'
        )
    `, driverID).Scan(&busy)
	if err != nil {
		return false, fmt.Errorf("check accepted jobs of driver %q: %w", driverID, err)
	}
	return busy, nil
}

// InsertAssignment - insert a new assignment.
func (r *TxRepo) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO assignments (`+assignmentColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, a.ID, a.BookingID, a.DriverID, string(a.Status), a.Round, a.Score,
		a.ExpiresAt, a.ClaimedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if violates(err, constraintOneActivePerBooking) {
			return apperr.ErrAlreadyClaimed
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// UpdateAssignment - persist status, window and claim time of an assignment.
func (r *TxRepo) UpdateAssignment(ctx context.Context, a *domain.Assignment) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments
        SET status = $2, expires_at = $3, claimed_at = $4, updated_at = $5
        WHERE id = $1
    `, a.ID, string(a.Status), a.ExpiresAt, a.ClaimedAt, a.UpdatedAt)
	if err != nil {
		if violates(err, constraintOneActivePerBooking) {
			return apperr.ErrAlreadyClaimed
		}
		if violates(err, constraintOneAcceptedPerDriver) {
			return apperr.Forbidden(apperr.ReasonAlreadyHasActiveJob)
		}
		return fmt.Errorf("update assignment %q: %w", a.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("assignment %q not found", a.ID)
	}
	return nil
}

// StepRecorded - whether step already exists on the assignment timeline.
func (r *TxRepo) StepRecorded(ctx context.Context, assignmentID string, step domain.Step) (bool, error) {
	var seen bool
	err := r.tx.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM job_events WHERE assignment_id = $1 AND step = $2)
    `, assignmentID, string(step)).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("check step %s: %w", step, err)
	}
	return seen, nil
}

// InsertJobEvent - append a job event.
func (r *TxRepo) InsertJobEvent(ctx context.Context, e *domain.JobEvent) error {
	var payload []byte
	if len(e.Payload) > 0 {
		payload = e.Payload
	}
	mediaURLs := e.MediaURLs
	if mediaURLs == nil {
		mediaURLs = []string{}
	}
	_, err := r.tx.Exec(ctx, `
        INSERT INTO job_events (id, assignment_id, step, payload, media_urls, notes, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, e.ID, e.AssignmentID, string(e.Step), payload, mediaURLs, e.Notes, e.CreatedBy, e.CreatedAt)
	if err != nil {
		if violates(err, constraintStepOncePerJob) {
			return apperr.ErrDuplicateStep
		}
		return fmt.Errorf("insert job event: %w", err)
	}
	return nil
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var (
		a      domain.Assignment
		status string
	)
	err := row.Scan(&a.ID, &a.BookingID, &a.DriverID, &status, &a.Round, &a.Score,
		&a.ExpiresAt, &a.ClaimedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	a.Status = domain.AssignmentStatus(status)
	return &a, nil
}

var _ assignmenttx.Runner = (*AssignmentRepo)(nil)
var _ assignmenttx.Repository = (*TxRepo)(nil)
