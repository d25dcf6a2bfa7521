package app

import (
	"github.com/juju/clock"
	"go.uber.org/dig"

	"service-job-assignment/internal/audit"
	"service-job-assignment/internal/config"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
	"service-job-assignment/internal/notify"
	"service-job-assignment/internal/repository"
	"service-job-assignment/internal/service/assignment"
	"service-job-assignment/internal/service/availability"
	"service-job-assignment/internal/service/eligibility"
	"service-job-assignment/internal/service/expiry"
)

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		func(clk clock.Clock, n *notify.Dispatcher, a *audit.Recorder, logger logx.Logger, m *metrics.Lifecycle) *expiry.Guard {
			return expiry.NewGuard(clk, n, a, logger, m)
		},
		func(drivers *repository.DriverRepo, presence *repository.AvailabilityStore) *eligibility.Checker {
			return eligibility.NewChecker(drivers, presence)
		},
		provideAssignmentDeps,
		func(d assignment.Deps, drivers *repository.DriverRepo) *assignment.OfferManager {
			return assignment.NewOfferManager(d, drivers)
		},
		func(d assignment.Deps, checker *eligibility.Checker, cfg *config.Config) *assignment.ClaimCoordinator {
			return assignment.NewClaimCoordinator(d, checker, cfg.Assignment.ClaimTTL)
		},
		assignment.NewAcceptDeclineHandler,
		assignment.NewProgressTracker,
		func(store *repository.AvailabilityStore, clk clock.Clock, logger logx.Logger) *availability.Service {
			return availability.NewService(store, clk, logger)
		},
	)
}

func provideAssignmentDeps(
	cfg *config.Config,
	repo *repository.AssignmentRepo,
	guard *expiry.Guard,
	n *notify.Dispatcher,
	a *audit.Recorder,
	logger logx.Logger,
	m *metrics.Lifecycle,
) assignment.Deps {
	return assignment.Deps{
		Store:            repo,
		Guard:            guard,
		Notifier:         n,
		Audit:            a,
		Logger:           logger,
		Metrics:          m,
		OperationTimeout: cfg.Assignment.OperationTimeout,
	}
}
