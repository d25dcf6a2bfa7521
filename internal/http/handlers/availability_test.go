package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/apperr"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

type stubAvailabilityUsecase struct {
	setFn      func(ctx context.Context, driverID string, status domain.AvailabilityStatus, consent bool) (domain.Availability, error)
	locationFn func(ctx context.Context, loc domain.Location) error
}

func (s *stubAvailabilityUsecase) SetStatus(ctx context.Context, driverID string, status domain.AvailabilityStatus, consent bool) (domain.Availability, error) {
	if s.setFn == nil {
		panic("SetStatus not expected in this test")
	}
	return s.setFn(ctx, driverID, status, consent)
}

func (s *stubAvailabilityUsecase) RecordLocation(ctx context.Context, loc domain.Location) error {
	if s.locationFn == nil {
		panic("RecordLocation not expected in this test")
	}
	return s.locationFn(ctx, loc)
}

func TestAvailabilityHandler_SetStatus(t *testing.T) {
	t.Parallel()

	uc := &stubAvailabilityUsecase{
		setFn: func(_ context.Context, driverID string, status domain.AvailabilityStatus, consent bool) (domain.Availability, error) {
			require.Equal(t, "d-1", driverID)
			require.Equal(t, domain.AvailabilityOnline, status)
			require.True(t, consent)
			return domain.Availability{DriverID: driverID, Status: status, LocationConsent: consent}, nil
		},
	}

	rr := httptest.NewRecorder()
	NewAvailabilityHandler(logx.Nop(), uc).SetStatus(rr, request(http.MethodPut, "/drivers/me/availability", `{"status":"online","locationConsent":true}`, "d-1", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestAvailabilityHandler_SetStatus_Invalid(t *testing.T) {
	t.Parallel()

	uc := &stubAvailabilityUsecase{
		setFn: func(context.Context, string, domain.AvailabilityStatus, bool) (domain.Availability, error) {
			return domain.Availability{}, apperr.ErrInvalid
		},
	}

	rr := httptest.NewRecorder()
	NewAvailabilityHandler(logx.Nop(), uc).SetStatus(rr, request(http.MethodPut, "/drivers/me/availability", `{"status":"sleeping"}`, "d-1", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAvailabilityHandler_RecordLocation(t *testing.T) {
	t.Parallel()

	var got domain.Location
	uc := &stubAvailabilityUsecase{
		locationFn: func(_ context.Context, loc domain.Location) error {
			got = loc
			return nil
		},
	}

	rr := httptest.NewRecorder()
	NewAvailabilityHandler(logx.Nop(), uc).RecordLocation(rr, request(http.MethodPost, "/drivers/me/location", `{"lat":51.5,"lng":-0.12}`, "d-1", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, domain.Location{DriverID: "d-1", Lat: 51.5, Lng: -0.12}, got)
}

func TestAvailabilityHandler_RecordLocation_Rejected(t *testing.T) {
	t.Parallel()

	uc := &stubAvailabilityUsecase{
		locationFn: func(context.Context, domain.Location) error {
			return apperr.Forbidden(apperr.ReasonNoLocationConsent)
		},
	}
	h := NewAvailabilityHandler(logx.Nop(), uc)

	rr := httptest.NewRecorder()
	h.RecordLocation(rr, request(http.MethodPost, "/drivers/me/location", `{"lat":0,"lng":0}`, "d-1", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"forbidden","reason":"location_consent_required"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.RecordLocation(rr, request(http.MethodPost, "/drivers/me/location", `{"lat":1}`, "d-1", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
