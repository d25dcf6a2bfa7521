package kafka

import (
	"strings"

	"service-job-assignment/internal/domain"
)

// OfferDTO is a dispatch command asking to offer a booking to a driver.
type OfferDTO struct {
	BookingID  string `json:"bookingId"`
	DriverID   string `json:"driverId"`
	TTLSeconds int64  `json:"ttlSeconds"`
	Round      int    `json:"round"`
	Score      int64  `json:"score"`
	OfferedBy  string `json:"offeredBy,omitempty"`
}

// dispatchActor is the audit actor of offers without an explicit author.
const dispatchActor = "system:dispatch"

// ToDomain converts OfferDTO to domain.OfferRequest
func ToDomain(dto OfferDTO) (domain.OfferRequest, error) {
	ttl, err := domain.OfferTTL(dto.TTLSeconds)
	if err != nil {
		return domain.OfferRequest{}, err
	}
	offeredBy := strings.TrimSpace(dto.OfferedBy)
	if offeredBy == "" {
		offeredBy = dispatchActor
	}
	return domain.OfferRequest{
		BookingID: strings.TrimSpace(dto.BookingID),
		DriverID:  strings.TrimSpace(dto.DriverID),
		TTL:       ttl,
		Round:     dto.Round,
		Score:     dto.Score,
		OfferedBy: offeredBy,
	}, nil
}
