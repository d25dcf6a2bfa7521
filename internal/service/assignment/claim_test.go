package assignment_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/service/assignment"
	"service-job-assignment/internal/service/expiry"
)

func TestClaim_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 9900)

	const n = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  int
	)
	gate := make(chan struct{})
	for i := 0; i < n; i++ {
		driverID := fmt.Sprintf("d%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			_, err := h.claims.Claim(context.Background(), "b1", driverID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, driverID)
			case errors.Is(err, apperr.ErrAlreadyClaimed):
				losers++
			default:
				t.Errorf("driver %s: unexpected error %v", driverID, err)
			}
		}()
	}
	close(gate)
	wg.Wait()

	require.Len(t, winners, 1)
	require.Equal(t, n-1, losers)
	require.Len(t, h.active("b1"), 1)
	require.Equal(t, winners[0], h.driverOf(t, "b1"))
}

func TestClaim_SelfClaimWithoutOffer(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 9900)

	a, err := h.claims.Claim(context.Background(), "b1", "d1")
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentClaimed, a.Status)
	require.Equal(t, 1, a.Round)
	require.Equal(t, int64(9900), a.Score)
	require.True(t, a.ExpiresAt.Equal(start.Add(assignment.DefaultClaimTTL)))
	require.NotNil(t, a.ClaimedAt)
	require.Equal(t, "d1", h.driverOf(t, "b1"))

	b, _ := h.store.Booking("b1")
	require.Equal(t, domain.BookingConfirmed, b.Status)

	require.Equal(t, []domain.NotificationKind{domain.NotifyJobClaimed}, h.notes.Kinds())
	require.Equal(t, []string{"assignment.claimed"}, h.audit.Actions())
}

func TestClaim_ConvertsOwnInvitation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 9900)
	ctx := context.Background()

	offer, err := h.offers.CreateOffer(ctx, domain.OfferRequest{BookingID: "b1", DriverID: "d1", TTL: 90 * time.Second, Round: 3})
	require.NoError(t, err)

	h.clock.Advance(30 * time.Second)
	a, err := h.claims.Claim(ctx, "b1", "d1")
	require.NoError(t, err)
	require.Equal(t, offer.AssignmentID, a.ID)
	require.Equal(t, domain.AssignmentClaimed, a.Status)
	require.Equal(t, 3, a.Round)
	require.True(t, a.ExpiresAt.Equal(start.Add(30*time.Second+5*time.Minute)))
	require.Len(t, h.store.Assignments("b1"), 1)
	require.Equal(t, "d1", h.driverOf(t, "b1"))
}

func TestClaim_InvitationForAnotherDriverBlocks(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 0)
	ctx := context.Background()

	_, err := h.offers.CreateOffer(ctx, domain.OfferRequest{BookingID: "b1", DriverID: "d1", TTL: time.Minute})
	require.NoError(t, err)

	_, err = h.claims.Claim(ctx, "b1", "d2")
	require.ErrorIs(t, err, apperr.ErrAlreadyClaimed)
	require.ErrorIs(t, err, apperr.ErrConflict)
	require.Empty(t, h.driverOf(t, "b1"))
}

func TestClaim_LapsedInvitationIsExpired(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 0)
	ctx := context.Background()

	_, err := h.offers.CreateOffer(ctx, domain.OfferRequest{BookingID: "b1", DriverID: "d1", TTL: 90 * time.Second})
	require.NoError(t, err)

	h.clock.Advance(91 * time.Second)
	_, err = h.claims.Claim(ctx, "b1", "d1")
	require.ErrorIs(t, err, apperr.ErrExpired)

	as := h.store.Assignments("b1")
	require.Len(t, as, 1)
	require.Equal(t, domain.AssignmentExpired, as[0].Status)
	require.Contains(t, h.notes.Kinds(), domain.NotifyOfferExpired)

	// the reap committed, so the next attempt starts a fresh cycle
	a, err := h.claims.Claim(ctx, "b1", "d1")
	require.NoError(t, err)
	require.NotEqual(t, as[0].ID, a.ID)
}

func TestClaim_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    func(h *harness)
		check   func(ctx context.Context, driverID string, now time.Time) (*domain.DriverProfile, error)
		booking string
		wantErr error
		reason  apperr.Reason
	}{
		{
			name:    "empty job id",
			wantErr: apperr.ErrInvalid,
		},
		{
			name:    "job missing",
			booking: "nope",
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "job completed",
			booking: "b1",
			seed: func(h *harness) {
				h.store.PutBooking(domain.Booking{ID: "b1", Status: domain.BookingCompleted, DriverID: "d9"})
			},
			wantErr: apperr.ErrAlreadyClaimed,
		},
		{
			name:    "driver offline",
			booking: "b1",
			seed:    func(h *harness) { h.booking("b1", 0) },
			check: func(context.Context, string, time.Time) (*domain.DriverProfile, error) {
				return nil, apperr.Forbidden(apperr.ReasonOffline)
			},
			wantErr: apperr.ErrForbidden,
			reason:  apperr.ReasonOffline,
		},
		{
			name:    "driver unknown",
			booking: "b1",
			seed:    func(h *harness) { h.booking("b1", 0) },
			check: func(_ context.Context, driverID string, _ time.Time) (*domain.DriverProfile, error) {
				return nil, fmt.Errorf("driver %s: %w", driverID, apperr.ErrNotFound)
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "driver already on a job",
			booking: "b1",
			seed: func(h *harness) {
				h.booking("b1", 0)
				h.store.PutBooking(domain.Booking{ID: "b0", Status: domain.BookingConfirmed, DriverID: "d1"})
				h.store.PutAssignment(domain.Assignment{
					ID: "a0", BookingID: "b0", DriverID: "d1", Status: domain.AssignmentAccepted,
				})
			},
			wantErr: apperr.ErrForbidden,
			reason:  apperr.ReasonAlreadyHasActiveJob,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			h.checker.fn = tt.check
			if tt.seed != nil {
				tt.seed(h)
			}

			_, err := h.claims.Claim(context.Background(), tt.booking, "d1")
			require.ErrorIs(t, err, tt.wantErr)
			if tt.reason != "" {
				got, ok := apperr.ForbiddenReason(err)
				require.True(t, ok)
				require.Equal(t, tt.reason, got)
			}
			require.Empty(t, h.notes.Kinds())
		})
	}
}

func TestClaim_FailedInsertRollsBackBooking(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.booking("b1", 0)
	boom := errors.New("insert failed")
	h.store.FailOn("InsertAssignment", boom)

	_, err := h.claims.Claim(context.Background(), "b1", "d1")
	require.ErrorIs(t, err, boom)
	require.Empty(t, h.driverOf(t, "b1"))
	require.Empty(t, h.store.Assignments("b1"))
	require.Empty(t, h.audit.Actions())
}

func TestClaim_IneligibleDriverNeverOpensTransaction(t *testing.T) {
	t.Parallel()

	ctrl := newCtrl(t)
	store := NewMockStore(ctrl)
	checker := NewMockEligibilityChecker(ctrl)
	notifier := NewMockNotifier(ctrl)
	audit := NewMockAuditSink(ctrl)

	checker.EXPECT().
		Check(gomock.Any(), "d1", gomock.Any()).
		Return(nil, apperr.Forbidden(apperr.ReasonOnboardingIncomplete))

	c := assignment.NewClaimCoordinator(assignment.Deps{
		Store:    store,
		Guard:    expiry.NewGuard(nil, notifier, audit, nil, nil),
		Notifier: notifier,
		Audit:    audit,
	}, checker, time.Minute)

	_, err := c.Claim(context.Background(), "b1", "d1")
	reason, ok := apperr.ForbiddenReason(err)
	require.True(t, ok)
	require.Equal(t, apperr.ReasonOnboardingIncomplete, reason)
}

func TestClaim_NotifiesDriverAfterCommit(t *testing.T) {
	t.Parallel()

	ctrl := newCtrl(t)
	notifier := NewMockNotifier(ctrl)
	audit := NewMockAuditSink(ctrl)

	h := newHarness(t)
	h.booking("b1", 0)

	notifier.EXPECT().Notify(gomock.Any()).Do(func(n domain.Notification) {
		require.Equal(t, domain.NotifyJobClaimed, n.Kind)
		require.Equal(t, "d1", n.DriverID)
		require.Equal(t, "b1", n.BookingID)
		require.NotNil(t, n.ExpiresAt)
	})
	audit.EXPECT().Record(gomock.Any()).Do(func(e domain.AuditEntry) {
		require.Equal(t, "assignment.claimed", e.Action)
		require.Equal(t, "d1", e.ActorID)
	})

	c := assignment.NewClaimCoordinator(assignment.Deps{
		Store:    h.store,
		Guard:    expiry.NewGuard(h.clock, notifier, audit, nil, nil),
		Notifier: notifier,
		Audit:    audit,
	}, stubChecker{}, 2*time.Minute)

	a, err := c.Claim(context.Background(), "b1", "d1")
	require.NoError(t, err)
	require.True(t, a.ExpiresAt.Equal(start.Add(2*time.Minute)))
}
