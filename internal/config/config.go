package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port       int
	LogLevel   string
	DB         DB
	Redis      Redis
	Kafka      Kafka
	Assignment Assignment
	Auth       Auth
	RateLimit  RateLimit
	Notify     Notify
	Admin      Admin
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns a postgres:// connection string.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Redis stores presence store settings.
type Redis struct {
	Addr        string
	Password    string
	DB          int
	PresenceTTL time.Duration
}

// Kafka stores broker settings. No brokers disables Kafka.
type Kafka struct {
	Brokers            []string
	GroupID            string
	OffersTopic        string
	NotificationsTopic string
}

// Enabled reports whether brokers are configured.
func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Assignment stores lifecycle timings.
type Assignment struct {
	ClaimTTL         time.Duration
	SweepInterval    time.Duration
	SweepBatch       int
	OperationTimeout time.Duration
}

// Auth stores bearer token settings.
type Auth struct {
	JWTSecret string
	JWTIssuer string
}

// RateLimit stores per-principal limiter settings.
type RateLimit struct {
	Enabled    bool
	Limit      int
	Window     time.Duration
	TTL        time.Duration
	MaxBuckets int
}

// Notify stores side-effect queue and retry settings.
type Notify struct {
	QueueSize      int
	Workers        int
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Admin stores the metrics and pprof listener. An empty Addr disables it.
type Admin struct {
	Addr string
	User string
	Pass string
}

// Load reads configuration in order: .env (if present), environment, command-line flags.
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs is Load with explicit command-line arguments.
func LoadArgs(args []string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:       defaultPort,
		LogLevel:   defaultLogLevel,
		DB:         defaultDB,
		Redis:      defaultRedis,
		Kafka:      defaultKafka,
		Assignment: defaultAssignment,
		RateLimit:  defaultRateLimit,
		Notify:     defaultNotify,
	}

	e := &envReader{}
	e.int("PORT", &cfg.Port)
	e.string("LOG_LEVEL", &cfg.LogLevel)

	e.string("POSTGRES_HOST", &cfg.DB.Host)
	e.string("POSTGRES_PORT", &cfg.DB.Port)
	e.string("POSTGRES_USER", &cfg.DB.User)
	e.string("POSTGRES_PASSWORD", &cfg.DB.Pass)
	e.string("POSTGRES_DB", &cfg.DB.Name)

	e.string("REDIS_ADDR", &cfg.Redis.Addr)
	e.string("REDIS_PASSWORD", &cfg.Redis.Password)
	e.int("REDIS_DB", &cfg.Redis.DB)
	e.duration("REDIS_PRESENCE_TTL", &cfg.Redis.PresenceTTL)

	e.list("KAFKA_BROKERS", &cfg.Kafka.Brokers)
	e.string("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	e.string("KAFKA_OFFERS_TOPIC", &cfg.Kafka.OffersTopic)
	e.string("KAFKA_NOTIFICATIONS_TOPIC", &cfg.Kafka.NotificationsTopic)

	e.duration("ASSIGNMENT_CLAIM_TTL", &cfg.Assignment.ClaimTTL)
	e.duration("ASSIGNMENT_SWEEP_INTERVAL", &cfg.Assignment.SweepInterval)
	e.int("ASSIGNMENT_SWEEP_BATCH", &cfg.Assignment.SweepBatch)
	e.duration("ASSIGNMENT_OPERATION_TIMEOUT", &cfg.Assignment.OperationTimeout)

	e.string("AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	e.string("AUTH_JWT_ISSUER", &cfg.Auth.JWTIssuer)

	e.bool("RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled)
	e.int("RATE_LIMIT_LIMIT", &cfg.RateLimit.Limit)
	e.duration("RATE_LIMIT_WINDOW", &cfg.RateLimit.Window)
	e.duration("RATE_LIMIT_TTL", &cfg.RateLimit.TTL)
	e.int("RATE_LIMIT_MAX_BUCKETS", &cfg.RateLimit.MaxBuckets)

	e.int("NOTIFY_QUEUE_SIZE", &cfg.Notify.QueueSize)
	e.int("NOTIFY_WORKERS", &cfg.Notify.Workers)
	e.int("NOTIFY_RETRY_ATTEMPTS", &cfg.Notify.RetryAttempts)
	e.duration("NOTIFY_RETRY_BASE_DELAY", &cfg.Notify.RetryBaseDelay)
	e.duration("NOTIFY_RETRY_MAX_DELAY", &cfg.Notify.RetryMaxDelay)

	e.string("ADMIN_ADDR", &cfg.Admin.Addr)
	e.string("ADMIN_USER", &cfg.Admin.User)
	e.string("ADMIN_PASS", &cfg.Admin.Pass)

	if e.err != nil {
		return nil, e.err
	}

	flags := pflag.NewFlagSet("service-job-assignment", pflag.ContinueOnError)
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flags.StringVar(&cfg.Admin.Addr, "admin-addr", cfg.Admin.Addr, "metrics and pprof listen address, empty disables")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if p, err := strconv.Atoi(c.DB.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid POSTGRES_PORT: %q", c.DB.Port)
	}
	if c.Assignment.ClaimTTL <= 0 {
		return fmt.Errorf("invalid ASSIGNMENT_CLAIM_TTL: %s", c.Assignment.ClaimTTL)
	}
	if c.Assignment.SweepInterval <= 0 {
		return fmt.Errorf("invalid ASSIGNMENT_SWEEP_INTERVAL: %s", c.Assignment.SweepInterval)
	}
	if c.Assignment.SweepBatch <= 0 {
		return fmt.Errorf("invalid ASSIGNMENT_SWEEP_BATCH: %d", c.Assignment.SweepBatch)
	}
	if c.Assignment.OperationTimeout <= 0 {
		return fmt.Errorf("invalid ASSIGNMENT_OPERATION_TIMEOUT: %s", c.Assignment.OperationTimeout)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate limit enabled but RATE_LIMIT_LIMIT or RATE_LIMIT_WINDOW is not positive")
	}
	if c.Notify.QueueSize <= 0 || c.Notify.Workers <= 0 {
		return errors.New("NOTIFY_QUEUE_SIZE and NOTIFY_WORKERS must be positive")
	}
	return nil
}

// envReader collects the first parse error so Load reads every variable in one pass.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) string(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) int(key string, dst *int) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = n
}

func (e *envReader) bool(key string, dst *bool) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
		return
	}
	*dst = d
}

func (e *envReader) list(key string, dst *[]string) {
	v, ok := e.lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
