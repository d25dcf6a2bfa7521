package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"service-job-assignment/internal/audit"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/notify"
	"service-job-assignment/internal/service/expiry"
	"service-job-assignment/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs a process graph from a dig container.
type Runner struct {
	runFn func(*dig.Container) error
}

// NewAPIRunner returns a Runner for the HTTP API.
func NewAPIRunner() *Runner {
	return &Runner{runFn: func(c *dig.Container) error { return c.Invoke(apiRun) }}
}

// NewWorkerRunner returns a Runner for the Kafka consumer and expiry sweeper.
func NewWorkerRunner() *Runner {
	return &Runner{runFn: func(c *dig.Container) error { return c.Invoke(workerRun) }}
}

// MustRun runs until shutdown and panics on any other failure.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

// resources are shared by both processes and closed on exit.
type resources struct {
	dig.In

	Ctx           context.Context
	Logger        logx.Logger
	Pool          *pgxpool.Pool
	Redis         *redis.Client
	Notifications *notify.Dispatcher
	Audit         *audit.Recorder
	KafkaSink     *notify.KafkaSink
	Admin         *http.Server `name:"admin_server"`
}

func (r resources) run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error { return r.Notifications.Run(ctx) })
	g.Go(func() error { return r.Audit.Run(ctx) })
	if r.Admin != nil {
		g.Go(func() error { return serve(ctx, r.Admin, r.Logger.With(logx.String("server", "admin"))) })
	}
}

func (r resources) close() {
	if r.KafkaSink != nil {
		if err := r.KafkaSink.Close(); err != nil {
			r.Logger.Error("kafka producer close error", logx.Err(err))
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			r.Logger.Error("redis close error", logx.Err(err))
		}
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
	_ = r.Logger.Sync()
}

type apiIn struct {
	dig.In

	Resources resources
	Server    *http.Server
}

func apiRun(in apiIn) error {
	res := in.Resources
	defer res.close()

	g, ctx := errgroup.WithContext(res.Ctx)
	res.run(ctx, g)
	g.Go(func() error { return serve(ctx, in.Server, res.Logger.With(logx.String("server", "api"))) })

	return shutdownErr(g.Wait())
}

type workerIn struct {
	dig.In

	Resources resources
	Sweeper   *expiry.Sweeper
	Consumer  *kafka.Consumer
}

func workerRun(in workerIn) error {
	res := in.Resources
	if in.Sweeper == nil {
		return errors.New("expiry sweeper is nil: worker container misconfigured")
	}
	defer res.close()

	g, ctx := errgroup.WithContext(res.Ctx)
	res.run(ctx, g)
	g.Go(func() error { return in.Sweeper.Run(ctx) })
	if in.Consumer != nil {
		defer func() {
			if err := in.Consumer.Close(); err != nil {
				res.Logger.Error("kafka consumer close error", logx.Err(err))
			}
		}()
		g.Go(func() error { return in.Consumer.Run(ctx) })
	} else {
		res.Logger.Warn("kafka not configured, offer intake disabled")
	}

	res.Logger.Info("worker started")
	return shutdownErr(g.Wait())
}

func serve(ctx context.Context, srv *http.Server, logger logx.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logx.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Error("graceful shutdown error", logx.Err(err))
		return srv.Close()
	}
	return nil
}

func shutdownErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
