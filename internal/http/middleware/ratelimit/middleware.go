package ratelimit

import (
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"service-job-assignment/internal/http/middleware/auth"
	"service-job-assignment/internal/logx"
)

// Middleware rejects requests over the limit with 429.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter
	limiter Limiter
	key     KeyFunc
}

// New creates a Middleware keyed by PrincipalOrIP.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		key:     PrincipalOrIP,
	}
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.key(r)
			ok, wait := m.limiter.Allow(key)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			if m.counter != nil {
				m.counter.Inc()
			}
			m.logger.Warn("rate limit exceeded",
				logx.String("key", key),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Duration("retry_after", wait),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter(wait))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := io.WriteString(w, `{"error":"too many requests"}`); err != nil {
				// client went away
				m.logger.Debug("rate limit response write failed",
					logx.String("key", key),
					logx.Err(err),
				)
			}
		})
	}
}

// retryAfter renders wait as whole seconds, at least one.
func retryAfter(wait time.Duration) string {
	secs := int64((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// PrincipalOrIP keys authenticated requests by principal and the rest by client IP.
func PrincipalOrIP(r *http.Request) string {
	if p, ok := auth.FromContext(r.Context()); ok {
		return "principal:" + p.ID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}
	return "unknown"
}
