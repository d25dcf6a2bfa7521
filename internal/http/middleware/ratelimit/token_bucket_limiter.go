package ratelimit

import (
	"container/list"
	"math"
	"sync"
	"time"

	"github.com/juju/clock"
)

// Config stores TokenBucketLimiter settings.
type Config struct {
	// Rate is the refill speed in tokens per second.
	Rate  float64
	Burst int
	// TTL forgets keys idle for longer. Zero keeps them until evicted.
	TTL time.Duration
	// MaxBuckets caps tracked keys; the least recently seen key is evicted. Zero is unbounded.
	MaxBuckets int
}

// TokenBucketLimiter keeps one token bucket per principal or client IP.
type TokenBucketLimiter struct {
	cfg      Config
	clock    clock.Clock
	perToken time.Duration

	mu      sync.Mutex
	buckets map[string]*list.Element
	// front is the most recently seen key
	recency *list.List
}

type bucket struct {
	key      string
	tokens   float64
	lastSeen time.Time
}

// NewTokenBucketLimiter creates a limiter reading time from clk.
func NewTokenBucketLimiter(clk clock.Clock, cfg Config) *TokenBucketLimiter {
	if clk == nil {
		clk = clock.WallClock
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:      cfg,
		clock:    clk,
		perToken: time.Duration(math.Round(float64(time.Second) / cfg.Rate)),
		buckets:  make(map[string]*list.Element),
		recency:  list.New(),
	}
}

// NewTokenBucketPerWindow admits limit requests per window, all of which may arrive at once.
func NewTokenBucketPerWindow(clk clock.Clock, limit int, window, ttl time.Duration, maxBuckets int) *TokenBucketLimiter {
	if window <= 0 {
		window = time.Second
	}
	if limit <= 0 {
		limit = 1
	}
	return NewTokenBucketLimiter(clk, Config{
		Rate:       float64(limit) / window.Seconds(),
		Burst:      limit,
		TTL:        ttl,
		MaxBuckets: maxBuckets,
	})
}

// Allow takes a token for key. When none is left it returns the time until one refills.
func (l *TokenBucketLimiter) Allow(key string) (bool, time.Duration) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.expireIdle(now)
	b := l.touch(key, now)

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(math.Ceil(missing * float64(l.perToken)))
	}
	b.tokens--
	return true, 0
}

// Len reports how many keys are tracked.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// touch refills and returns the bucket for key, creating it full when unseen.
func (l *TokenBucketLimiter) touch(key string, now time.Time) *bucket {
	if el, ok := l.buckets[key]; ok {
		b := el.Value.(*bucket)
		if dt := now.Sub(b.lastSeen); dt > 0 {
			b.tokens = math.Min(float64(l.cfg.Burst), b.tokens+dt.Seconds()*l.cfg.Rate)
		}
		b.lastSeen = now
		l.recency.MoveToFront(el)
		return b
	}

	if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
		oldest := l.recency.Back()
		l.recency.Remove(oldest)
		delete(l.buckets, oldest.Value.(*bucket).key)
	}
	b := &bucket{key: key, tokens: float64(l.cfg.Burst), lastSeen: now}
	l.buckets[key] = l.recency.PushFront(b)
	return b
}

func (l *TokenBucketLimiter) expireIdle(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}
	for el := l.recency.Back(); el != nil; {
		b := el.Value.(*bucket)
		if now.Sub(b.lastSeen) <= l.cfg.TTL {
			return
		}
		prev := el.Prev()
		l.recency.Remove(el)
		delete(l.buckets, b.key)
		el = prev
	}
}
