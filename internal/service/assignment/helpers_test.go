package assignment_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/juju/clock/testclock"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/service/assignment"
	"service-job-assignment/internal/service/expiry"
	"service-job-assignment/internal/testutil/memstore"
	"service-job-assignment/internal/testutil/sinkrec"
	"service-job-assignment/internal/testutil/testlog"
)

var start = time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)

func newCtrl(t *testing.T) *gomock.Controller {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return ctrl
}

type stubChecker struct {
	fn func(ctx context.Context, driverID string, now time.Time) (*domain.DriverProfile, error)
}

func (s stubChecker) Check(ctx context.Context, driverID string, now time.Time) (*domain.DriverProfile, error) {
	if s.fn == nil {
		return approved(driverID), nil
	}
	return s.fn(ctx, driverID, now)
}

type stubDirectory struct {
	missing map[string]bool
}

func (s stubDirectory) DriverProfile(_ context.Context, driverID string) (*domain.DriverProfile, error) {
	if s.missing[driverID] {
		return nil, nil
	}
	return approved(driverID), nil
}

func approved(driverID string) *domain.DriverProfile {
	return &domain.DriverProfile{ID: driverID, Onboarding: domain.OnboardingApproved}
}

type harness struct {
	store   *memstore.Store
	clock   *testclock.Clock
	notes   *sinkrec.Notifications
	audit   *sinkrec.Audit
	logs    *testlog.Recorder
	checker *stubChecker

	offers   *assignment.OfferManager
	claims   *assignment.ClaimCoordinator
	replies  *assignment.AcceptDeclineHandler
	progress *assignment.ProgressTracker
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:   memstore.New(),
		clock:   testclock.NewClock(start),
		notes:   &sinkrec.Notifications{},
		audit:   &sinkrec.Audit{},
		logs:    testlog.New(),
		checker: &stubChecker{},
	}
	deps := assignment.Deps{
		Store:    h.store,
		Guard:    expiry.NewGuard(h.clock, h.notes, h.audit, h.logs.Logger(), nil),
		Notifier: h.notes,
		Audit:    h.audit,
		Logger:   h.logs.Logger(),
	}
	h.offers = assignment.NewOfferManager(deps, stubDirectory{missing: map[string]bool{"ghost": true}})
	h.claims = assignment.NewClaimCoordinator(deps, h.checker, 0)
	h.replies = assignment.NewAcceptDeclineHandler(deps)
	h.progress = assignment.NewProgressTracker(deps)
	return h
}

func (h *harness) booking(id string, amount int64) {
	h.store.PutBooking(domain.Booking{ID: id, Status: domain.BookingConfirmed, AmountPence: amount})
}

func (h *harness) driverOf(t *testing.T, bookingID string) string {
	t.Helper()
	b, ok := h.store.Booking(bookingID)
	if !ok {
		t.Fatalf("booking %s missing", bookingID)
	}
	return b.DriverID
}

func (h *harness) active(bookingID string) []domain.Assignment {
	var out []domain.Assignment
	for _, a := range h.store.Assignments(bookingID) {
		if a.Status.Active() {
			out = append(out, a)
		}
	}
	return out
}

func (h *harness) step(ctx context.Context, assignmentID, driverID string, step domain.Step) (domain.JobEvent, error) {
	return h.progress.RecordStep(ctx, domain.StepRequest{
		AssignmentID: assignmentID,
		DriverID:     driverID,
		Step:         string(step),
	})
}
