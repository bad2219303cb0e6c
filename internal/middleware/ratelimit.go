package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed-window counter shared by every API instance. A nil
// limiter or an unreachable Redis lets requests through.
type RedisLimiter struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{"ratelimit:" + key}, ttl, limit).Int64()
	if err != nil {
		log.Printf("rate limiter unavailable: %v", err)
		return true
	}
	return allowed == 1
}

// RateLimit rejects requests whose key exceeded limit within window. An empty
// key skips the check.
func RateLimit(limiter *RedisLimiter, keyFn func(*fiber.Ctx) string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := keyFn(c)
		if key == "" || limiter == nil {
			return c.Next()
		}
		if !limiter.Allow(c.UserContext(), key, limit, window) {
			return TooManyRequests("Too many requests, please slow down")
		}
		return c.Next()
	}
}

// ApplyKey limits submissions per applicant and posting.
func ApplyKey(c *fiber.Ctx) string {
	userID := GetCurrentUserID(c)
	if userID == "" {
		return ""
	}
	return "apply:" + userID + ":" + c.Params("id")
}
