package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"unicode/utf8"

	"github.com/google/uuid"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/ports/assignmenttx"
)

const (
	maxMediaURLs   = 20
	maxNotesLength = 2000
)

// ProgressTracker appends timeline steps to accepted assignments.
type ProgressTracker struct {
	deps Deps
}

// NewProgressTracker creates a new ProgressTracker.
func NewProgressTracker(d Deps) *ProgressTracker {
	return &ProgressTracker{deps: d.withDefaults()}
}

// RecordStep appends req.Step to the assignment timeline. Each step is recorded
// at most once; job_completed also completes the assignment and its booking.
func (p *ProgressTracker) RecordStep(ctx context.Context, req domain.StepRequest) (ev domain.JobEvent, err error) {
	defer func() { p.deps.Metrics.Observe("record_step", err) }()

	ev, err = newJobEvent(req)
	if err != nil {
		return domain.JobEvent{}, err
	}

	ctx, cancel := p.deps.withTimeout(ctx)
	defer cancel()

	owned, err := p.owned(ctx, ev.AssignmentID, ev.CreatedBy)
	if err != nil {
		return domain.JobEvent{}, err
	}

	now := p.deps.Guard.Now()
	var completed bool

	err = p.deps.Store.WithTx(ctx, func(tx assignmenttx.Repository) error {
		if _, err := tx.LockBooking(ctx, owned.BookingID); err != nil {
			return err
		}
		a, err := tx.LockAssignment(ctx, owned.ID)
		if err != nil {
			return err
		}
		if a == nil || a.DriverID != ev.CreatedBy {
			return fmt.Errorf("assignment %s: %w", owned.ID, apperr.ErrNotFound)
		}
		if a.Status != domain.AssignmentAccepted {
			return fmt.Errorf("%w: assignment %s is %s", apperr.ErrInvalidState, a.ID, a.Status)
		}

		seen, err := tx.StepRecorded(ctx, a.ID, ev.Step)
		if err != nil {
			return err
		}
		if seen {
			return fmt.Errorf("step %s: %w", ev.Step, apperr.ErrDuplicateStep)
		}

		ev.CreatedAt = now
		if err := tx.InsertJobEvent(ctx, &ev); err != nil {
			return err
		}

		if !ev.Step.Final() {
			return nil
		}
		if err := a.Apply(domain.EventComplete, now); err != nil {
			return err
		}
		if err := tx.UpdateAssignment(ctx, a); err != nil {
			return err
		}
		completed = true
		return tx.CompleteBooking(ctx, a.BookingID)
	})
	if err != nil {
		return domain.JobEvent{}, err
	}

	p.deps.Logger.Info("job step recorded", logx.Transition("job_step_recorded", ev.AssignmentID, owned.BookingID, ev.CreatedBy,
		logx.String("step", string(ev.Step)),
	)...)
	p.deps.Notifier.Notify(domain.Notification{
		Kind:         domain.NotifyStepRecorded,
		DriverID:     ev.CreatedBy,
		BookingID:    owned.BookingID,
		AssignmentID: ev.AssignmentID,
		Step:         ev.Step,
		At:           now,
	})
	p.deps.Audit.Record(domain.AuditEntry{
		Action:     "job_event.recorded",
		EntityType: "job_event",
		EntityID:   ev.ID,
		ActorID:    ev.CreatedBy,
		Details:    map[string]any{"assignmentId": ev.AssignmentID, "step": string(ev.Step)},
		At:         now,
	})

	if completed {
		p.deps.Logger.Info("job completed", logx.Transition("job_completed", ev.AssignmentID, owned.BookingID, ev.CreatedBy)...)
		p.deps.Notifier.Notify(domain.Notification{
			Kind:         domain.NotifyJobCompleted,
			DriverID:     ev.CreatedBy,
			BookingID:    owned.BookingID,
			AssignmentID: ev.AssignmentID,
			At:           now,
		})
		p.deps.audit("assignment.completed", ev.AssignmentID, ev.CreatedBy, now, map[string]any{"bookingId": owned.BookingID})
	}

	return ev, nil
}

// Timeline returns the recorded steps of the driver's assignment in order.
func (p *ProgressTracker) Timeline(ctx context.Context, assignmentID, driverID string) ([]domain.JobEvent, error) {
	var err error
	if assignmentID, err = requireID("assignmentId", assignmentID); err != nil {
		return nil, err
	}
	if driverID, err = requireID("driverId", driverID); err != nil {
		return nil, err
	}

	ctx, cancel := p.deps.withTimeout(ctx)
	defer cancel()

	if _, err := p.owned(ctx, assignmentID, driverID); err != nil {
		return nil, err
	}
	events, err := p.deps.Store.ListJobEvents(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list job events: %w", err)
	}
	return events, nil
}

// owned returns the assignment when it belongs to driverID. Someone else's
// assignment is reported as missing.
func (p *ProgressTracker) owned(ctx context.Context, assignmentID, driverID string) (*domain.Assignment, error) {
	a, err := p.deps.Store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.DriverID != driverID {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, apperr.ErrNotFound)
	}
	return a, nil
}

func newJobEvent(req domain.StepRequest) (domain.JobEvent, error) {
	assignmentID, err := requireID("assignmentId", req.AssignmentID)
	if err != nil {
		return domain.JobEvent{}, err
	}
	driverID, err := requireID("driverId", req.DriverID)
	if err != nil {
		return domain.JobEvent{}, err
	}
	step, err := domain.ParseStep(req.Step)
	if err != nil {
		return domain.JobEvent{}, fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}
	if len(req.Payload) > 0 && !json.Valid(req.Payload) {
		return domain.JobEvent{}, fmt.Errorf("%w: payload is not valid JSON", apperr.ErrInvalid)
	}
	if len(req.MediaURLs) > maxMediaURLs {
		return domain.JobEvent{}, fmt.Errorf("%w: at most %d mediaUrls", apperr.ErrInvalid, maxMediaURLs)
	}
	for _, raw := range req.MediaURLs {
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return domain.JobEvent{}, fmt.Errorf("%w: invalid media url %q", apperr.ErrInvalid, raw)
		}
	}
	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		return domain.JobEvent{}, fmt.Errorf("%w: notes longer than %d characters", apperr.ErrInvalid, maxNotesLength)
	}

	return domain.JobEvent{
		ID:           uuid.NewString(),
		AssignmentID: assignmentID,
		Step:         step,
		Payload:      req.Payload,
		MediaURLs:    append([]string(nil), req.MediaURLs...),
		Notes:        req.Notes,
		CreatedBy:    driverID,
	}, nil
}
