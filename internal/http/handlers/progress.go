package handlers

import (
	"net/http"

	"service-job-assignment/internal/logx"
)

// ProgressHandler serves assignment timelines.
type ProgressHandler struct {
	usecase progressUsecase
	logger  logx.Logger
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(logger logx.Logger, uc progressUsecase) *ProgressHandler {
	return &ProgressHandler{usecase: uc, logger: logger}
}

// Record handles POST /assignments/{assignmentID}/events.
// @Summary Record a progress step
// @Tags progress
// @Accept json
// @Produce json
// @Param assignmentID path string true "Assignment ID"
// @Param request body recordStepRequest true "Step payload"
// @Success 201 {object} eventEnvelope
// @Failure 400 {object} ErrorResponse "invalid input"
// @Failure 404 {object} ErrorResponse "assignment not found"
// @Failure 409 {object} ErrorResponse "step already recorded"
// @Router /assignments/{assignmentID}/events [post]
func (h *ProgressHandler) Record(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	assignmentID, ok := pathParam(h.logger, w, r, "assignmentID")
	if !ok {
		return
	}
	var req recordStepRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	ev, err := h.usecase.RecordStep(r.Context(), req.toModel(assignmentID, p.ID))
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, eventEnvelope{Event: eventToResponse(ev)})
}

// Timeline handles GET /assignments/{assignmentID}/events.
func (h *ProgressHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	assignmentID, ok := pathParam(h.logger, w, r, "assignmentID")
	if !ok {
		return
	}

	events, err := h.usecase.Timeline(r.Context(), assignmentID, p.ID)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, timelineResponse{Events: eventsToResponse(events)})
}
