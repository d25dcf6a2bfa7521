package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"service-job-assignment/internal/testutil/testlog"
)

func withStubNewPool(t *testing.T, stub func(context.Context, string) (*pgxpool.Pool, error)) {
	t.Helper()
	orig := newPool
	newPool = stub
	t.Cleanup(func() { newPool = orig })
}

func TestConnectDbWithRetry_SuccessFirstAttempt(t *testing.T) {
	wantPool := &pgxpool.Pool{}
	calls := 0

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		calls++
		return wantPool, nil
	})

	rec := testlog.New()
	pool, err := connectDbWithRetry(context.Background(), rec.Logger(), "postgres://stub", 3, 10*time.Millisecond)
	require.NoError(t, err)
	require.Same(t, wantPool, pool)
	require.Equal(t, 1, calls)
	require.Len(t, rec.Find("db connected"), 1)
}

func TestConnectDbWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("not ready")
		}
		return &pgxpool.Pool{}, nil
	})

	rec := testlog.New()
	pool, err := connectDbWithRetry(context.Background(), rec.Logger(), "postgres://stub", 5, 0)
	require.NoError(t, err)
	require.NotNil(t, pool)
	require.Equal(t, 3, calls)
	require.Len(t, rec.Find("db connect failed"), 2)
}

func TestConnectDbWithRetry_ExhaustsRetries(t *testing.T) {
	sentinelErr := errors.New("db boom")
	calls := 0

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		calls++
		return nil, sentinelErr
	})

	pool, err := connectDbWithRetry(context.Background(), testlog.New().Logger(), "postgres://stub", 3, 0)
	require.Error(t, err)
	require.Nil(t, pool)
	require.Equal(t, 3, calls)
	require.ErrorIs(t, err, sentinelErr)
}

func TestConnectDbWithRetry_ContextCanceledBetweenRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		return nil, errors.New("db boom")
	})

	pool, err := connectDbWithRetry(ctx, testlog.New().Logger(), "postgres://stub", 3, 50*time.Millisecond)
	require.Error(t, err)
	require.Nil(t, pool)
	require.ErrorIs(t, err, context.Canceled)
}
