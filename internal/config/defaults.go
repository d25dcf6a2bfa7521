package config

import "time"

const (
	defaultPort     = 8080
	defaultLogLevel = "info"
)

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "test_db",
}

var defaultRedis = Redis{
	Addr:        "127.0.0.1:6379",
	PresenceTTL: 12 * time.Hour,
}

var defaultKafka = Kafka{
	GroupID:            "service-job-assignment",
	OffersTopic:        "dispatch.offers",
	NotificationsTopic: "driver.notifications",
}

var defaultAssignment = Assignment{
	ClaimTTL:         5 * time.Minute,
	SweepInterval:    30 * time.Second,
	SweepBatch:       100,
	OperationTimeout: 3 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Limit:      20,
	Window:     time.Second,
	TTL:        10 * time.Minute,
	MaxBuckets: 100_000,
}

var defaultNotify = Notify{
	QueueSize:      1024,
	Workers:        2,
	RetryAttempts:  4,
	RetryBaseDelay: 150 * time.Millisecond,
	RetryMaxDelay:  2 * time.Second,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultAssignment returns the default assignment lifecycle settings.
func DefaultAssignment() Assignment {
	return defaultAssignment
}

// DefaultNotify returns the default notification queue settings.
func DefaultNotify() Notify {
	return defaultNotify
}
