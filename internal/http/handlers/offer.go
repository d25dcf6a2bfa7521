package handlers

import (
	"net/http"

	"service-job-assignment/internal/logx"
)

// OfferHandler serves dispatch offers.
type OfferHandler struct {
	usecase offerUsecase
	logger  logx.Logger
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(logger logx.Logger, uc offerUsecase) *OfferHandler {
	return &OfferHandler{usecase: uc, logger: logger}
}

// Create handles POST /offers.
// @Summary Offer a job to a driver
// @Tags offers
// @Accept json
// @Produce json
// @Param request body createOfferRequest true "Offer payload"
// @Success 201 {object} createOfferResponse
// @Failure 400 {object} ErrorResponse "invalid input"
// @Failure 404 {object} ErrorResponse "booking or driver not found"
// @Failure 409 {object} ErrorResponse "booking not offerable"
// @Router /offers [post]
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := caller(h.logger, w, r)
	if !ok {
		return
	}
	var req createOfferRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	offer, err := req.toModel(p.ID)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	res, err := h.usecase.CreateOffer(r.Context(), offer)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, createOfferResponse{
		AssignmentID: res.AssignmentID,
		ExpiresAt:    res.ExpiresAt.UTC(),
	})
}
