package handlers

import (
	"encoding/json"
	"time"

	"service-job-assignment/internal/domain"
)

var emptyPayload = json.RawMessage(`{}`)

func (r createOfferRequest) toModel(offeredBy string) (domain.OfferRequest, error) {
	ttl, err := domain.OfferTTL(r.TTLSeconds)
	if err != nil {
		return domain.OfferRequest{}, err
	}
	return domain.OfferRequest{
		BookingID: r.BookingID,
		DriverID:  r.DriverID,
		TTL:       ttl,
		Round:     r.Round,
		Score:     r.Score,
		OfferedBy: offeredBy,
	}, nil
}

func (r recordStepRequest) toModel(assignmentID, driverID string) domain.StepRequest {
	return domain.StepRequest{
		AssignmentID: assignmentID,
		DriverID:     driverID,
		Step:         r.Step,
		Payload:      r.Payload,
		MediaURLs:    r.MediaURLs,
		Notes:        r.Notes,
	}
}

func assignmentToResponse(a domain.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:        a.ID,
		BookingID: a.BookingID,
		DriverID:  a.DriverID,
		Status:    string(a.Status),
		Round:     a.Round,
		ExpiresAt: a.ExpiresAt.UTC(),
		ClaimedAt: utcPtr(a.ClaimedAt),
		CreatedAt: a.CreatedAt.UTC(),
		UpdatedAt: a.UpdatedAt.UTC(),
	}
}

func eventToResponse(e domain.JobEvent) jobEventDTO {
	payload := e.Payload
	if len(payload) == 0 {
		payload = emptyPayload
	}
	media := e.MediaURLs
	if media == nil {
		media = []string{}
	}
	return jobEventDTO{
		ID:           e.ID,
		AssignmentID: e.AssignmentID,
		Step:         string(e.Step),
		Payload:      payload,
		MediaURLs:    media,
		Notes:        e.Notes,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt.UTC(),
	}
}

func eventsToResponse(list []domain.JobEvent) []jobEventDTO {
	out := make([]jobEventDTO, 0, len(list))
	for _, e := range list {
		out = append(out, eventToResponse(e))
	}
	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
