package ratelimit

import "time"

// NopLimiter is used when RATE_LIMIT_ENABLED is false.
type NopLimiter struct{}

// Allow admits every request.
func (NopLimiter) Allow(string) (bool, time.Duration) { return true, 0 }
