package app

import (
	"context"
	"fmt"

	"github.com/juju/clock"
	"go.uber.org/dig"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/repository"
	"service-job-assignment/internal/service/assignment"
	"service-job-assignment/internal/service/expiry"
	"service-job-assignment/internal/transport/kafka"
)

type offerCreator interface {
	CreateOffer(ctx context.Context, req domain.OfferRequest) (domain.OfferResult, error)
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		func(repo *repository.AssignmentRepo, guard *expiry.Guard, clk clock.Clock, cfg *config.Config, logger logx.Logger) *expiry.Sweeper {
			return expiry.NewSweeper(repo, repo, guard, clk, expiry.SweeperConfig{
				Interval: cfg.Assignment.SweepInterval,
				Batch:    cfg.Assignment.SweepBatch,
			}, logger.With(logx.String("component", "expiry_sweeper")))
		},
		func(m *assignment.OfferManager) kafka.HandleFunc {
			return makeOfferHandler(m)
		},
		// nil when KAFKA_BROKERS is empty
		func(cfg *config.Config, logger logx.Logger, h kafka.HandleFunc) (*kafka.Consumer, error) {
			k := cfg.Kafka
			return kafka.NewConsumer(logger, k.Brokers, k.GroupID, k.OffersTopic, h)
		},
	)
}

func makeOfferHandler(m offerCreator) kafka.HandleFunc {
	return func(ctx context.Context, req domain.OfferRequest) error {
		if _, err := m.CreateOffer(ctx, req); err != nil {
			return fmt.Errorf("offer booking %s to %s: %w", req.BookingID, req.DriverID, err)
		}
		return nil
	}
}
