package handlers

import (
	"net/http"

	"service-job-assignment/internal/logx"
)

// JobHandler serves the driver side of a booking: claim, accept, decline and lookup.
type JobHandler struct {
	claim   claimUsecase
	respond respondUsecase
	logger  logx.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(logger logx.Logger, claim claimUsecase, respond respondUsecase) *JobHandler {
	return &JobHandler{claim: claim, respond: respond, logger: logger}
}

// Claim handles POST /jobs/{jobID}/claim.
// @Summary Claim an open job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse "driver not eligible"
// @Failure 409 {object} ErrorResponse "job no longer available"
// @Router /jobs/{jobID}/claim [post]
func (h *JobHandler) Claim(w http.ResponseWriter, r *http.Request) {
	p, bookingID, ok := h.target(w, r)
	if !ok {
		return
	}
	a, err := h.claim.Claim(r.Context(), bookingID, p)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentEnvelope[claimedAssignmentDTO]{
		Assignment: claimedAssignmentDTO{ID: a.ID, Status: string(a.Status), ExpiresAt: a.ExpiresAt.UTC()},
	})
}

// Accept handles POST /jobs/{jobID}/accept.
// @Summary Accept a claimed job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} ErrorResponse "offer expired or invalid state"
// @Router /jobs/{jobID}/accept [post]
func (h *JobHandler) Accept(w http.ResponseWriter, r *http.Request) {
	p, bookingID, ok := h.target(w, r)
	if !ok {
		return
	}
	a, err := h.respond.Accept(r.Context(), bookingID, p)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentEnvelope[assignmentRefDTO]{
		Assignment: assignmentRefDTO{ID: a.ID, Status: string(a.Status)},
	})
}

// Decline handles POST /jobs/{jobID}/decline.
// @Summary Decline a claimed or offered job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Booking ID"
// @Success 200 {object} successResponse
// @Router /jobs/{jobID}/decline [post]
func (h *JobHandler) Decline(w http.ResponseWriter, r *http.Request) {
	p, bookingID, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.respond.Decline(r.Context(), bookingID, p); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, successResponse{Success: true})
}

// Assignment handles GET /jobs/{jobID}/assignment.
func (h *JobHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	p, bookingID, ok := h.target(w, r)
	if !ok {
		return
	}
	a, err := h.respond.Current(r.Context(), bookingID, p)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentEnvelope[assignmentDTO]{Assignment: assignmentToResponse(a)})
}

func (h *JobHandler) target(w http.ResponseWriter, r *http.Request) (driverID, bookingID string, ok bool) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return "", "", false
	}
	bookingID, ok = pathParam(h.logger, w, r, "jobID")
	if !ok {
		return "", "", false
	}
	return p.ID, bookingID, true
}
