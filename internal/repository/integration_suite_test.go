//go:build integration

package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"service-job-assignment/internal/repository"
)

var tcPool *pgxpool.Pool

var tcDSN string

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_pass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("failed to start postgres testcontainer: %v", err)
	}

	terminate := func() {
		if termErr := pgContainer.Terminate(ctx); termErr != nil {
			log.Printf("failed to terminate postgres container: %v", termErr)
		}
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		log.Fatalf("failed to get connection string from container: %v", err)
	}

	pool, err := repository.NewPool(ctx, connStr)
	if err != nil {
		terminate()
		log.Fatalf("failed to create pgx pool: %v", err)
	}

	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		terminate()
		log.Fatalf("failed to apply migrations: %v", err)
	}

	tcPool = pool
	tcDSN = connStr

	code := m.Run()

	pool.Close()
	terminate()

	os.Exit(code)
}

func truncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE job_events, assignments, bookings, driver_documents, drivers, audit_log RESTART IDENTITY CASCADE`)
	return err
}
