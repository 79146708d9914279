// Package ratelimit bounds how often API requests may reach the gateway.
package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Config is a token bucket: PerMinute tokens refill per minute, at most Burst
// are held. PerMinute <= 0 disables limiting.
type Config struct {
	PerMinute int
	Burst     int
}

// Limiter is a single token bucket shared by every request it guards.
type Limiter struct {
	limiter *rate.Limiter
	enabled bool
}

// New creates a limiter. Burst defaults to PerMinute when unset.
func New(config Config) *Limiter {
	if config.PerMinute <= 0 {
		return &Limiter{}
	}
	if config.Burst <= 0 {
		config.Burst = config.PerMinute
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.PerMinute)), config.Burst),
		enabled: true,
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	if !l.enabled {
		return true
	}
	return l.limiter.Allow()
}

// retryAfter is the whole number of seconds until the next token.
func (l *Limiter) retryAfter() int {
	r := l.limiter.Reserve()
	delay := r.Delay()
	r.Cancel()
	return int(math.Ceil(delay.Seconds()))
}

// HTTPMiddleware rejects requests with 429 while the bucket is empty.
func (l *Limiter) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", l.retryAfter()))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
