package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"service-job-assignment/internal/async"
	"service-job-assignment/internal/audit"
	"service-job-assignment/internal/config"
	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/notify"
	"service-job-assignment/internal/repository"
)

type queueCountersIn struct {
	dig.In

	Dropped *prometheus.CounterVec `name:"async_queue_dropped_total"`
	Failed  *prometheus.CounterVec `name:"async_queue_failed_total"`
}

func registerSideEffects(container *dig.Container) error {
	return provideAll(container,
		provideKafkaSink,
		provideNotifySink,
		provideDispatcher,
		provideAuditRecorder,
	)
}

func queueConfig(cfg *config.Config) async.Config {
	return async.Config{Size: cfg.Notify.QueueSize, Workers: cfg.Notify.Workers}
}

// provideKafkaSink returns nil when Kafka is not configured.
func provideKafkaSink(cfg *config.Config) (*notify.KafkaSink, error) {
	if !cfg.Kafka.Enabled() {
		return nil, nil
	}
	producer, err := notify.NewKafkaProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return notify.NewKafkaSink(producer, cfg.Kafka.NotificationsTopic), nil
}

type notifySinkIn struct {
	dig.In

	Config  *config.Config
	Logger  logx.Logger
	Kafka   *notify.KafkaSink
	Retries prometheus.Counter `name:"notify_retries_total"`
}

func provideNotifySink(in notifySinkIn) notify.Sink {
	if in.Kafka == nil {
		return notify.NewLogSink(in.Logger)
	}
	return notify.NewRetryingSink(in.Kafka, in.Logger, in.Retries, notify.RetryConfig{
		MaxAttempts: in.Config.Notify.RetryAttempts,
		BaseDelay:   in.Config.Notify.RetryBaseDelay,
		MaxDelay:    in.Config.Notify.RetryMaxDelay,
	})
}

func provideDispatcher(cfg *config.Config, sink notify.Sink, logger logx.Logger, counters queueCountersIn) *notify.Dispatcher {
	return notify.NewDispatcher(sink, queueConfig(cfg), logger,
		counters.Dropped.WithLabelValues("notifications"),
		counters.Failed.WithLabelValues("notifications"),
	)
}

func provideAuditRecorder(cfg *config.Config, repo *repository.AuditRepo, logger logx.Logger, counters queueCountersIn) *audit.Recorder {
	return audit.NewRecorder(repo, queueConfig(cfg), logger,
		counters.Dropped.WithLabelValues("audit"),
		counters.Failed.WithLabelValues("audit"),
	)
}
