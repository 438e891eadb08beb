package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultRateLimitGroup = "STANDARD"
	// SkipRateLimit returned from GroupFor bypasses limiting.
	SkipRateLimit = "-"

	sweepEvery = time.Minute
)

// RateLimitRule allows Limit requests per fixed Window, counted per key.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// PerWindow builds a rule that allows limit requests per window.
func PerWindow(limit int, window time.Duration) RateLimitRule {
	return RateLimitRule{Limit: limit, Window: window}
}

func (r RateLimitRule) enabled() bool {
	return r.Limit > 0 && r.Window > 0
}

// RateLimitResult is the outcome of counting one request.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts a keyed request against a rule.
type Limiter interface {
	Allow(ctx context.Context, key string, rule RateLimitRule) RateLimitResult
}

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      Limiter
	// Principal names the caller when no identity is in context yet, e.g.
	// when the limiter runs ahead of Auth. Empty falls back to the IP.
	Principal func(*gin.Context) string
}

// RateLimit counts each request against its group's rule, keyed by the
// authenticated user when known and the client IP otherwise. It sets the
// RateLimit-* headers and answers 429 once the window is spent.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = defaultRateLimitGroup
	}
	return func(c *gin.Context) {
		group := cfg.DefaultGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok || !rule.enabled() {
			c.Next()
			return
		}

		principal := UserIDFromContext(c)
		if principal == "" && cfg.Principal != nil {
			principal = cfg.Principal(c)
		}
		if principal == "" {
			principal = c.ClientIP()
		}
		res := cfg.Limiter.Allow(c.Request.Context(), principal+"|"+group, rule)

		resetSeconds := ceilSeconds(res.ResetIn)
		c.Header("RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
		c.Header("RateLimit-Reset", strconv.Itoa(resetSeconds))
		if res.Allowed {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(resetSeconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":        "rate_limited",
			"message":      "Too many requests, please try again later.",
			"retryAfterMs": max(res.ResetIn.Milliseconds(), 1000),
		})
	}
}

func ceilSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}

// RateLimiter is the in-process Limiter: one counter per key, reset when
// its window elapses.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*rateWindow
	now       func() time.Time
	lastSweep time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{windows: make(map[string]*rateWindow), now: now}
}

func (l *RateLimiter) Allow(_ context.Context, key string, rule RateLimitRule) RateLimitResult {
	if !rule.enabled() {
		return RateLimitResult{Allowed: true}
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(rule.Window)}
		l.windows[key] = w
	}
	w.count++
	return RateLimitResult{
		Allowed:   w.count <= rule.Limit,
		Remaining: rule.Limit - w.count,
		ResetIn:   w.resetAt.Sub(now),
	}
}

// sweep drops expired windows; caller holds mu.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
