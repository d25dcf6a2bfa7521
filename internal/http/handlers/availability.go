package handlers

import (
	"net/http"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
)

// AvailabilityHandler serves driver presence updates.
type AvailabilityHandler struct {
	usecase availabilityUsecase
	logger  logx.Logger
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(logger logx.Logger, uc availabilityUsecase) *AvailabilityHandler {
	return &AvailabilityHandler{usecase: uc, logger: logger}
}

// SetStatus handles PUT /drivers/me/availability.
func (h *AvailabilityHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req setAvailabilityRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	status := domain.AvailabilityStatus(req.Status)
	if _, err := h.usecase.SetStatus(r.Context(), p.ID, status, req.LocationConsent); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordLocation handles POST /drivers/me/location.
func (h *AvailabilityHandler) RecordLocation(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req locationRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	err := h.usecase.RecordLocation(r.Context(), domain.Location{DriverID: p.ID, Lat: *req.Lat, Lng: *req.Lng})
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
