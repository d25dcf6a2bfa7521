package expiry

import (
	"context"
	"time"

	"github.com/juju/clock"

	"service-job-assignment/internal/domain"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/ports/assignmenttx"
)

const sweeperActor = "system:expiry-sweeper"

type overdueLister interface {
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.Assignment, error)
}

// SweeperConfig stores Sweeper settings.
type SweeperConfig struct {
	Interval time.Duration
	Batch    int
}

// Sweeper periodically expires invited and claimed assignments nobody revisited.
type Sweeper struct {
	lister overdueLister
	runner assignmenttx.Runner
	guard  *Guard
	clock  clock.Clock
	cfg    SweeperConfig
	logger logx.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	lister overdueLister,
	runner assignmenttx.Runner,
	guard *Guard,
	clk clock.Clock,
	cfg SweeperConfig,
	logger logx.Logger,
) *Sweeper {
	if clk == nil {
		clk = clock.WallClock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	return &Sweeper{lister: lister, runner: runner, guard: guard, clock: clk, cfg: cfg, logger: logger}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("expiry sweeper started", logx.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return ctx.Err()
		case <-s.clock.After(s.cfg.Interval):
		}

		n, err := s.SweepOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("expiry sweep failed", logx.Any("err", err))
			continue
		}
		if n > 0 {
			s.logger.Info("expired stale assignments", logx.Int("count", n))
		}
	}
}

// SweepOnce expires one batch of overdue assignments and reports how many changed.
// Each assignment is reaped in its own transaction under the booking lock.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.guard.Now()
	due, err := s.lister.ListOverdue(ctx, now, s.cfg.Batch)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, candidate := range due {
		var expired *domain.Assignment
		err := s.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
			if _, err := tx.LockBooking(ctx, candidate.BookingID); err != nil {
				return err
			}
			a, err := tx.LockAssignment(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// claimed, declined or reaped since the listing
			if a == nil || s.guard.Check(*a, now) == nil {
				return nil
			}
			if err := s.guard.Reap(ctx, tx, a, now); err != nil {
				return err
			}
			expired = a
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return reaped, ctx.Err()
			}
			s.logger.Warn("expire assignment failed",
				logx.String("assignment_id", candidate.ID),
				logx.Any("err", err),
			)
			continue
		}
		if expired != nil {
			reaped++
			s.guard.Announce(*expired, sweeperActor)
		}
	}
	return reaped, nil
}
