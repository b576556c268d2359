package ratelimit

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"account-api/pkg/config"
	"account-api/pkg/logger"
	"account-api/pkg/response"
)

const (
	KeyPrefix = "ratelimit"

	MessageTooManyRequests = "Too many requests, please try again later"

	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"

	refillTokens = 1
)

// tokenBucket keeps {tokens, last_refill_ms} in a hash per key and answers
// {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (*Decision, error)
	Middleware() fiber.Handler
}

type limiter struct {
	client *redis.Client
	config config.RateLimitConfig
}

// NewLimiter returns a limiter that lets everything through when client is nil.
func NewLimiter(client *redis.Client, rateLimitConfig config.RateLimitConfig) Limiter {
	return &limiter{
		client: client,
		config: rateLimitConfig,
	}
}

func (l *limiter) Allow(ctx context.Context, key string) (*Decision, error) {
	if l.client == nil {
		return &Decision{Allowed: true, Remaining: int64(l.config.Capacity)}, nil
	}

	ttlSeconds := int64(math.Ceil(l.config.Ttl.Seconds()))
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}

	result, err := tokenBucket.Run(ctx, l.client, []string{key},
		time.Now().UnixMilli(),
		l.config.Capacity,
		refillTokens,
		l.config.RefillInterval.Milliseconds(),
		ttlSeconds,
	).Int64Slice()
	if err != nil {
		return nil, err
	}

	return &Decision{
		Allowed:    result[0] == 1,
		Remaining:  result[1],
		RetryAfter: time.Duration(result[2]) * time.Millisecond,
	}, nil
}

// Middleware limits per client ip and route. Redis failures let the request pass.
func (l *limiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if l.client == nil {
			return ctx.Next()
		}

		key := BuildKey(ctx.IP(), ctx.Method(), ctx.Route().Path)
		decision, err := l.Allow(ctx.UserContext(), key)
		if err != nil {
			logger.FromContext(ctx.UserContext()).
				Warnw("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return ctx.Next()
		}

		ctx.Set(HeaderLimit, strconv.Itoa(l.config.Capacity))
		ctx.Set(HeaderRemaining, strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return ctx.
				Status(fiber.StatusTooManyRequests).
				JSON(response.NewError(fiber.StatusTooManyRequests, MessageTooManyRequests, nil))
		}

		return ctx.Next()
	}
}

func BuildKey(ip, method, route string) string {
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{KeyPrefix, "ip", ip, "route", method + " " + route}, ":")
}
