// Package app wires the API and worker processes.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/repository"
)

type (
	dbConnectFunc    func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)
	redisConnectFunc func(ctx context.Context, addr, password string, db int) (*redis.Client, error)
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect    dbConnectFunc
	redisConnect redisConnectFunc
	registerer   prometheus.Registerer
	gatherer     prometheus.Gatherer
	loadConfig   func() (*config.Config, error)
	logFatalf    func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:    connectDbWithRetry,
		redisConnect: repository.NewRedisClient,
		registerer:   prometheus.DefaultRegisterer,
		gatherer:     prometheus.DefaultGatherer,
		loadConfig:   config.Load,
		logFatalf:    log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithRedisConnect sets the Redis connection function
func (b *ContainerBuilder) WithRedisConnect(fn redisConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.redisConnect = fn
	}
	return b
}

// WithRegistry sets where metrics are registered and gathered from
func (b *ContainerBuilder) WithRegistry(reg *prometheus.Registry) *ContainerBuilder {
	if reg != nil {
		b.registerer, b.gatherer = reg, reg
	}
	return b
}

// WithConfig replaces config.Load
func (b *ContainerBuilder) WithConfig(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds the worker container
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container, err := b.buildShared(ctx)
	if err != nil {
		return nil, err
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container, err := b.buildShared(ctx)
	if err != nil {
		return nil, err
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

func (b *ContainerBuilder) buildShared(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := b.registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := container.Invoke(func(*config.Config) {}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := registerStorage(container, b.dbConnect, b.redisConnect); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := registerSideEffects(container); err != nil {
		return nil, fmt.Errorf("side effects: %w", err)
	}
	if err := registerDomainServices(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerAdmin(container); err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the API container with default dependencies
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the worker container with default dependencies
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func (b *ContainerBuilder) registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		b.loadConfig,
		NewLogger,
		func() clock.Clock { return clock.WallClock },
		func() prometheus.Registerer { return b.registerer },
		func() prometheus.Gatherer { return b.gatherer },
		provideMetrics,
	)
}
