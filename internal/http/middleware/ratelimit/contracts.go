package ratelimit

import (
	"net/http"
	"time"
)

// Limiter admits one request for key, or reports how long until it would.
type Limiter interface {
	Allow(key string) (ok bool, wait time.Duration)
}

// KeyFunc derives the bucket key of a request.
type KeyFunc func(r *http.Request) string
