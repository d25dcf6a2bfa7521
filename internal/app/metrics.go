package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-job-assignment/internal/metrics"
)

type metricsOut struct {
	dig.Out

	Lifecycle         *metrics.Lifecycle
	HTTP              *metrics.HTTP
	RateLimitExceeded prometheus.Counter     `name:"rate_limit_exceeded_total"`
	NotifyRetries     prometheus.Counter     `name:"notify_retries_total"`
	QueueDropped      *prometheus.CounterVec `name:"async_queue_dropped_total"`
	QueueFailed       *prometheus.CounterVec `name:"async_queue_failed_total"`
}

func provideMetrics(reg prometheus.Registerer) (metricsOut, error) {
	var out metricsOut
	var err error

	out.Lifecycle = metrics.NewLifecycle()
	if err = out.Lifecycle.Register(reg); err != nil {
		return metricsOut{}, fmt.Errorf("register lifecycle metrics: %w", err)
	}
	out.HTTP = metrics.NewHTTP()
	if err = out.HTTP.Register(reg); err != nil {
		return metricsOut{}, fmt.Errorf("register http metrics: %w", err)
	}
	if out.RateLimitExceeded, err = metrics.Register(reg, metrics.NewRateLimitExceededTotal()); err != nil {
		return metricsOut{}, fmt.Errorf("register rate_limit_exceeded_total: %w", err)
	}
	if out.NotifyRetries, err = metrics.Register(reg, metrics.NewNotifyRetriesTotal()); err != nil {
		return metricsOut{}, fmt.Errorf("register notify_retries_total: %w", err)
	}
	if out.QueueDropped, err = metrics.Register(reg, metrics.NewQueueDroppedTotal()); err != nil {
		return metricsOut{}, fmt.Errorf("register async_queue_dropped_total: %w", err)
	}
	if out.QueueFailed, err = metrics.Register(reg, metrics.NewQueueFailedTotal()); err != nil {
		return metricsOut{}, fmt.Errorf("register async_queue_failed_total: %w", err)
	}
	return out, nil
}
