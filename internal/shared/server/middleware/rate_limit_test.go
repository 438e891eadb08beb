package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(limiter Limiter, rules map[string]RateLimitRule, groupFor func(*gin.Context) string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set(userIDKey, id)
		}
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{Rules: rules, GroupFor: groupFor, Limiter: limiter}))
	r.Any("/*path", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, method, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitGroupsHaveSeparateBudgets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	groupFor := func(c *gin.Context) string {
		if c.Request.URL.Path == "/api/extract-keywords" {
			return "AI"
		}
		return "STANDARD"
	}
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		"STANDARD": PerWindow(5, time.Minute),
		"AI":       PerWindow(2, time.Hour),
	}, groupFor)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/api/extract-keywords", "google:1").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodPost, "/api/extract-keywords", "google:1").Code)

	// Another user and another group are unaffected.
	assert.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/api/extract-keywords", "google:2").Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/api/usage", "google:1").Code)
	}
}

func TestRateLimitSkipGroup(t *testing.T) {
	r := newLimitedRouter(nil, map[string]RateLimitRule{"STANDARD": PerWindow(1, time.Hour)},
		func(*gin.Context) string { return SkipRateLimit })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/auth/google/callback", "").Code)
	}
}

func TestRateLimit429Body(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }),
		map[string]RateLimitRule{"STANDARD": PerWindow(1, 15*time.Minute)}, nil)

	first := hit(r, http.MethodGet, "/api/limited", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", first.Header().Get("RateLimit-Remaining"))

	resp := hit(r, http.MethodGet, "/api/limited", "")
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "900", resp.Header().Get("Retry-After"))

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "rate_limited", payload["error"])
	assert.EqualValues(t, 900000, payload["retryAfterMs"])
}

func TestRateLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := PerWindow(2, time.Hour)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k", rule).Allowed)
	now = now.Add(30 * time.Minute)
	second := limiter.Allow(ctx, "k", rule)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)
	assert.Equal(t, 30*time.Minute, second.ResetIn)

	denied := limiter.Allow(ctx, "k", rule)
	assert.False(t, denied.Allowed)

	now = now.Add(30 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "k", rule).Allowed, "new window after reset")
}

func TestRateLimiterSweepsExpiredWindows(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	ctx := context.Background()

	limiter.Allow(ctx, "a", PerWindow(1, time.Second))
	now = now.Add(2 * time.Minute)
	limiter.Allow(ctx, "b", PerWindow(1, time.Hour))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.windows, "a")
	assert.Contains(t, limiter.windows, "b")
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	res := NewRedisLimiter(client, "").Allow(context.Background(), "user|AI", PerWindow(1, time.Hour))
	assert.True(t, res.Allowed)
}
