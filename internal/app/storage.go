package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-job-assignment/internal/config"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/repository"
)

var (
	newPool = repository.NewPool
	migrate = repository.Migrate
)

const (
	dbConnectRetries = 10
	dbConnectDelay   = time.Second
)

func registerStorage(container *dig.Container, dbConnect dbConnectFunc, redisConnect redisConnectFunc) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*pgxpool.Pool, error) {
		pool, err := dbConnect(ctx, logger, cfg.DB.DSN(), dbConnectRetries, dbConnectDelay)
		if err != nil {
			return nil, err
		}
		if err := migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pool, nil
	}
	providerRedis := func(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
		return redisConnect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return provideAll(container,
		providerDB,
		providerRedis,
		repository.NewAssignmentRepo,
		repository.NewDriverRepo,
		repository.NewAuditRepo,
		func(rdb *redis.Client, cfg *config.Config) *repository.AvailabilityStore {
			return repository.NewAvailabilityStore(rdb, cfg.Redis.PresenceTTL)
		},
	)
}

func connectDbWithRetry(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error) {
	var lastErr error
	const attemptTimeout = 3 * time.Second
	for i := 1; i <= retries; i++ {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		pool, err := newPool(attemptCtx, dsn)
		cancel()
		if err == nil {
			logger.Info("db connected", logx.Int("attempt", i))
			return pool, nil
		}
		lastErr = err
		logger.Warn("db connect failed",
			logx.Int("attempt", i),
			logx.Int("retries", retries),
			logx.Err(err),
		)
		if i < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil, fmt.Errorf("db connect failed after %d attempts: %w", retries, lastErr)
}
