package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
)

func TestAssignmentStatus_Next(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		from  domain.AssignmentStatus
		event domain.AssignmentEvent
		want  domain.AssignmentStatus
		ok    bool
	}{
		{"invited claim", domain.AssignmentInvited, domain.EventClaim, domain.AssignmentClaimed, true},
		{"invited decline", domain.AssignmentInvited, domain.EventDecline, domain.AssignmentDeclined, true},
		{"invited expire", domain.AssignmentInvited, domain.EventExpire, domain.AssignmentExpired, true},
		{"invited accept", domain.AssignmentInvited, domain.EventAccept, "", false},
		{"claimed accept", domain.AssignmentClaimed, domain.EventAccept, domain.AssignmentAccepted, true},
		{"claimed decline", domain.AssignmentClaimed, domain.EventDecline, domain.AssignmentDeclined, true},
		{"claimed expire", domain.AssignmentClaimed, domain.EventExpire, domain.AssignmentExpired, true},
		{"claimed complete", domain.AssignmentClaimed, domain.EventComplete, "", false},
		{"accepted complete", domain.AssignmentAccepted, domain.EventComplete, domain.AssignmentCompleted, true},
		{"accepted decline", domain.AssignmentAccepted, domain.EventDecline, "", false},
		{"accepted expire", domain.AssignmentAccepted, domain.EventExpire, "", false},
		{"completed accept", domain.AssignmentCompleted, domain.EventAccept, "", false},
		{"completed decline", domain.AssignmentCompleted, domain.EventDecline, "", false},
		{"declined claim", domain.AssignmentDeclined, domain.EventClaim, "", false},
		{"expired claim", domain.AssignmentExpired, domain.EventClaim, "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.from.Next(tt.event)
			if !tt.ok {
				require.ErrorIs(t, err, apperr.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAssignmentStatus_TerminalHasNoExit(t *testing.T) {
	t.Parallel()

	events := []domain.AssignmentEvent{
		domain.EventClaim, domain.EventAccept, domain.EventDecline, domain.EventExpire, domain.EventComplete,
	}
	for _, s := range []domain.AssignmentStatus{
		domain.AssignmentDeclined, domain.AssignmentExpired, domain.AssignmentCompleted,
	} {
		require.True(t, s.Terminal())
		require.False(t, s.Active())
		for _, e := range events {
			_, err := s.Next(e)
			require.ErrorIs(t, err, apperr.ErrInvalidState, "%s on %s", e, s)
		}
	}
}

func TestAssignment_ApplyClaimStampsClaimedAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := domain.Assignment{Status: domain.AssignmentInvited}

	require.NoError(t, a.Apply(domain.EventClaim, now))
	require.Equal(t, domain.AssignmentClaimed, a.Status)
	require.NotNil(t, a.ClaimedAt)
	require.True(t, a.ClaimedAt.Equal(now))
	require.True(t, a.UpdatedAt.Equal(now))

	err := a.Apply(domain.EventComplete, now)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	require.Equal(t, domain.AssignmentClaimed, a.Status)
}

func TestAssignment_Overdue(t *testing.T) {
	t.Parallel()

	exp := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)

	claimed := domain.Assignment{Status: domain.AssignmentClaimed, ExpiresAt: exp}
	require.False(t, claimed.Overdue(exp))
	require.True(t, claimed.Overdue(exp.Add(time.Nanosecond)))

	accepted := domain.Assignment{Status: domain.AssignmentAccepted, ExpiresAt: exp}
	require.False(t, accepted.Overdue(exp.Add(time.Hour)))
}

func TestParseAssignmentStatus(t *testing.T) {
	t.Parallel()

	s, err := domain.ParseAssignmentStatus("claimed")
	require.NoError(t, err)
	require.Equal(t, domain.AssignmentClaimed, s)

	_, err = domain.ParseAssignmentStatus("CLAIMED")
	require.Error(t, err)
}
