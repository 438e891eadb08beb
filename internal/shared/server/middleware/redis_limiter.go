package middleware

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"ramresume-backend/internal/shared/telemetry"
)

// The first hit in a window sets the expiry; a key that lost its TTL is
// repaired on the next hit.
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// RedisLimiter shares window counters across API instances. It fails open
// when Redis is unreachable.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ramresume:rl:"
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		prefix: prefix,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) RateLimitResult {
	if r == nil || r.client == nil || !rule.enabled() {
		return RateLimitResult{Allowed: true}
	}
	res, err := r.script.Run(ctx, r.client, []string{r.prefix + key}, rule.Window.Milliseconds()).Int64Slice()
	if err != nil || len(res) < 2 {
		fields := map[string]any{"key": key}
		if err != nil {
			fields["error"] = err.Error()
		}
		telemetry.Warn("ratelimit.redis_unavailable", fields)
		return RateLimitResult{Allowed: true, Remaining: rule.Limit}
	}
	count := int(res[0])
	return RateLimitResult{
		Allowed:   count <= rule.Limit,
		Remaining: rule.Limit - count,
		ResetIn:   time.Duration(res[1]) * time.Millisecond,
	}
}
