package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewNotifyRetriesTotal returns a Prometheus counter for notification delivery retries
func NewNotifyRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_retries_total",
		Help: "Total number of retry attempts performed by the notification sink",
	})
}

// NewQueueDroppedTotal returns a counter of side-effect items dropped because a queue was full
func NewQueueDroppedTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_queue_dropped_total",
		Help: "Total number of items dropped by best-effort queues",
	}, []string{"queue"})
}

// NewQueueFailedTotal returns a counter of side-effect items whose handler failed
func NewQueueFailedTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_queue_failed_total",
		Help: "Total number of items whose handler returned an error",
	}, []string{"queue"})
}
