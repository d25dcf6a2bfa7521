package handlers

import (
	"context"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/service/assignment"
	"service-job-assignment/internal/service/availability"
)

type offerUsecase interface {
	CreateOffer(ctx context.Context, req domain.OfferRequest) (domain.OfferResult, error)
}

// NewOfferUsecase wires an OfferManager into an offerUsecase.
func NewOfferUsecase(m *assignment.OfferManager) offerUsecase {
	return m
}

type claimUsecase interface {
	Claim(ctx context.Context, bookingID, driverID string) (domain.Assignment, error)
}

type respondUsecase interface {
	Accept(ctx context.Context, bookingID, driverID string) (domain.Assignment, error)
	Decline(ctx context.Context, bookingID, driverID string) error
	Current(ctx context.Context, bookingID, driverID string) (domain.Assignment, error)
}

// NewJobUsecases wires the claim and respond services.
func NewJobUsecases(c *assignment.ClaimCoordinator, h *assignment.AcceptDeclineHandler) (claimUsecase, respondUsecase) {
	return c, h
}

type progressUsecase interface {
	RecordStep(ctx context.Context, req domain.StepRequest) (domain.JobEvent, error)
	Timeline(ctx context.Context, assignmentID, driverID string) ([]domain.JobEvent, error)
}

// NewProgressUsecase wires a ProgressTracker into a progressUsecase.
func NewProgressUsecase(p *assignment.ProgressTracker) progressUsecase {
	return p
}

type availabilityUsecase interface {
	SetStatus(ctx context.Context, driverID string, status domain.AvailabilityStatus, consent bool) (domain.Availability, error)
	RecordLocation(ctx context.Context, loc domain.Location) error
}

// NewAvailabilityUsecase wires an availability Service into an availabilityUsecase.
func NewAvailabilityUsecase(s *availability.Service) availabilityUsecase {
	return s
}
