// Package memstore is an in-memory, serializable implementation of the
// assignment stores for deterministic service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/ports/assignmenttx"
)

// Store keeps bookings, assignments and job events behind one lock.
// WithTx holds the lock for the whole callback, so transactions are serial.
type Store struct {
	mu          sync.Mutex
	bookings    map[string]domain.Booking
	assignments map[string]domain.Assignment
	order       []string
	events      []domain.JobEvent
	failures    map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		bookings:    make(map[string]domain.Booking),
		assignments: make(map[string]domain.Assignment),
		failures:    make(map[string]error),
	}
}

// PutBooking seeds or replaces a booking.
func (s *Store) PutBooking(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b
}

// PutAssignment seeds an assignment without constraint checks.
func (s *Store) PutAssignment(a domain.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[a.ID]; !ok {
		s.order = append(s.order, a.ID)
	}
	s.assignments[a.ID] = a
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Booking returns a booking by id.
func (s *Store) Booking(id string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// Assignments returns all assignments of a booking in creation order.
func (s *Store) Assignments(bookingID string) []domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Assignment
	for _, id := range s.order {
		if a := s.assignments[id]; a.BookingID == bookingID {
			out = append(out, a)
		}
	}
	return out
}

// WithTx runs fn against a snapshot-protected view and rolls back on error.
func (s *Store) WithTx(ctx context.Context, fn func(tx assignmenttx.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&txView{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// GetAssignment returns an assignment by id, or nil.
func (s *Store) GetAssignment(_ context.Context, id string) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["GetAssignment"]; err != nil {
		return nil, err
	}
	a, ok := s.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// FindLatestAssignment returns the newest assignment of a driver on a booking, or nil.
func (s *Store) FindLatestAssignment(_ context.Context, bookingID, driverID string) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest(bookingID, driverID), nil
}

// ListJobEvents returns the timeline of an assignment ordered by creation.
func (s *Store) ListJobEvents(_ context.Context, assignmentID string) ([]domain.JobEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.JobEvent
	for _, e := range s.events {
		if e.AssignmentID == assignmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListOverdue returns invited or claimed assignments whose window lapsed before now.
func (s *Store) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures["ListOverdue"]; err != nil {
		return nil, err
	}
	var out []domain.Assignment
	for _, id := range s.order {
		a := s.assignments[id]
		if a.Overdue(now) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type snapshot struct {
	bookings    map[string]domain.Booking
	assignments map[string]domain.Assignment
	order       []string
	events      []domain.JobEvent
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		bookings:    make(map[string]domain.Booking, len(s.bookings)),
		assignments: make(map[string]domain.Assignment, len(s.assignments)),
		order:       append([]string(nil), s.order...),
		events:      append([]domain.JobEvent(nil), s.events...),
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.assignments {
		snap.assignments[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.bookings = snap.bookings
	s.assignments = snap.assignments
	s.order = snap.order
	s.events = snap.events
}

func (s *Store) latest(bookingID, driverID string) *domain.Assignment {
	for i := len(s.order) - 1; i >= 0; i-- {
		a := s.assignments[s.order[i]]
		if a.BookingID == bookingID && a.DriverID == driverID {
			return &a
		}
	}
	return nil
}

type txView struct {
	s *Store
}

func (t *txView) fail(op string) error {
	return t.s.failures[op]
}

func (t *txView) LockBooking(_ context.Context, bookingID string) (*domain.Booking, error) {
	if err := t.fail("LockBooking"); err != nil {
		return nil, err
	}
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *txView) AttachDriver(_ context.Context, bookingID, driverID string) error {
	if err := t.fail("AttachDriver"); err != nil {
		return err
	}
	b, ok := t.s.bookings[bookingID]
	if !ok || b.Status != domain.BookingConfirmed || b.DriverID != "" {
		return apperr.ErrAlreadyClaimed
	}
	b.DriverID = driverID
	t.s.bookings[bookingID] = b
	return nil
}

func (t *txView) DetachDriver(_ context.Context, bookingID, driverID string) error {
	if err := t.fail("DetachDriver"); err != nil {
		return err
	}
	b, ok := t.s.bookings[bookingID]
	if !ok || b.DriverID != driverID {
		return nil
	}
	b.DriverID = ""
	t.s.bookings[bookingID] = b
	return nil
}

func (t *txView) CompleteBooking(_ context.Context, bookingID string) error {
	if err := t.fail("CompleteBooking"); err != nil {
		return err
	}
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %q not found", bookingID)
	}
	b.Status = domain.BookingCompleted
	t.s.bookings[bookingID] = b
	return nil
}

func (t *txView) ActiveAssignment(_ context.Context, bookingID string) (*domain.Assignment, error) {
	if err := t.fail("ActiveAssignment"); err != nil {
		return nil, err
	}
	for _, id := range t.s.order {
		a := t.s.assignments[id]
		if a.BookingID == bookingID && a.Status.Active() {
			return &a, nil
		}
	}
	return nil, nil
}

func (t *txView) LatestAssignment(_ context.Context, bookingID, driverID string) (*domain.Assignment, error) {
	if err := t.fail("LatestAssignment"); err != nil {
		return nil, err
	}
	return t.s.latest(bookingID, driverID), nil
}

func (t *txView) LockAssignment(_ context.Context, id string) (*domain.Assignment, error) {
	if err := t.fail("LockAssignment"); err != nil {
		return nil, err
	}
	a, ok := t.s.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *txView) DriverHasAcceptedJob(_ context.Context, driverID string) (bool, error) {
	if err := t.fail("DriverHasAcceptedJob"); err != nil {
		return false, err
	}
	for _, a := range t.s.assignments {
		if a.DriverID == driverID && a.Status == domain.AssignmentAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (t *txView) InsertAssignment(_ context.Context, a *domain.Assignment) error {
	if err := t.fail("InsertAssignment"); err != nil {
		return err
	}
	if _, dup := t.s.assignments[a.ID]; dup {
		return fmt.Errorf("assignment %q already exists", a.ID)
	}
	if a.Status.Active() {
		for _, other := range t.s.assignments {
			if other.BookingID == a.BookingID && other.Status.Active() {
				return apperr.ErrAlreadyClaimed
			}
		}
	}
	t.s.assignments[a.ID] = *a
	t.s.order = append(t.s.order, a.ID)
	return nil
}

func (t *txView) UpdateAssignment(_ context.Context, a *domain.Assignment) error {
	if err := t.fail("UpdateAssignment"); err != nil {
		return err
	}
	if _, ok := t.s.assignments[a.ID]; !ok {
		return fmt.Errorf("assignment %q not found", a.ID)
	}
	if a.Status == domain.AssignmentAccepted {
		for id, other := range t.s.assignments {
			if id != a.ID && other.DriverID == a.DriverID && other.Status == domain.AssignmentAccepted {
				return apperr.Forbidden(apperr.ReasonAlreadyHasActiveJob)
			}
		}
	}
	t.s.assignments[a.ID] = *a
	return nil
}

func (t *txView) StepRecorded(_ context.Context, assignmentID string, step domain.Step) (bool, error) {
	if err := t.fail("StepRecorded"); err != nil {
		return false, err
	}
	for _, e := range t.s.events {
		if e.AssignmentID == assignmentID && e.Step == step {
			return true, nil
		}
	}
	return false, nil
}

func (t *txView) InsertJobEvent(_ context.Context, e *domain.JobEvent) error {
	if err := t.fail("InsertJobEvent"); err != nil {
		return err
	}
	for _, other := range t.s.events {
		if other.AssignmentID == e.AssignmentID && other.Step == e.Step {
			return apperr.ErrDuplicateStep
		}
	}
	t.s.events = append(t.s.events, *e)
	return nil
}

var _ assignmenttx.Runner = (*Store)(nil)
