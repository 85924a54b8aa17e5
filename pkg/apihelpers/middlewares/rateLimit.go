package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newsreel/cms-backend/pkg/apihelpers"
)

type RateLimitConfig struct {
	Requests int           `json:"requests" yaml:"requests"`
	Window   time.Duration `json:"window" yaml:"window"`
}

type rateWindow struct {
	start time.Time
	count int
}

// IPRateLimiter counts requests per client address in fixed windows. The table is shared by
// all requests, so every access holds mu.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewIPRateLimiter returns nil for a non-positive limit or window, which disables limiting.
func NewIPRateLimiter(conf RateLimitConfig) *IPRateLimiter {
	if conf.Requests <= 0 || conf.Window <= 0 {
		return nil
	}
	return &IPRateLimiter{
		entries: map[string]*rateWindow{},
		limit:   conf.Requests,
		window:  conf.Window,
		now:     time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (rl *IPRateLimiter) WithClock(now func() time.Time) *IPRateLimiter {
	rl.now = now
	return rl
}

// Allow records a request for key and reports whether it is within the limit. When it is not,
// retryAfter tells when the current window ends.
func (rl *IPRateLimiter) Allow(key string) (allowed bool, retryAfter time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(now)

	entry, ok := rl.entries[key]
	if !ok {
		entry = &rateWindow{start: now}
		rl.entries[key] = entry
	}
	entry.count++
	if entry.count > rl.limit {
		return false, entry.start.Add(rl.window).Sub(now)
	}
	return true, 0
}

// Prune drops every window that has ended.
func (rl *IPRateLimiter) Prune() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.pruneLocked(now)
}

// StartPruning prunes on a fixed schedule until ctx is done.
func (rl *IPRateLimiter) StartPruning(ctx context.Context, interval time.Duration) {
	if rl == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Prune()
			}
		}
	}()
}

func (rl *IPRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

func (rl *IPRateLimiter) pruneLocked(now time.Time) {
	for key, entry := range rl.entries {
		if !now.Before(entry.start.Add(rl.window)) {
			delete(rl.entries, key)
		}
	}
}

// Handler throttles by client IP. A nil limiter lets everything through.
func (rl *IPRateLimiter) Handler() gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, retryAfter := rl.Allow(ip)
		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			slog.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", c.Request.URL.Path))
			apihelpers.AbortWithError(c, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		c.Next()
	}
}
