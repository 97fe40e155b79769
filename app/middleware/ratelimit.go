package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/worckyky/sport-booking-backend/config"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// tokenBucketScript refills whole intervals since the last refill, then takes
// one token. Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
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

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill_tokens)
		last_refill = last_refill + intervals * interval_ms
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

type RateLimitRecorder interface {
	RecordRateLimited(path string)
}

type RateLimiter struct {
	cfg      config.RateLimitConfig
	rdb      *redis.Client
	recorder RateLimitRecorder
	now      func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, recorder RateLimitRecorder) *RateLimiter {
	return &RateLimiter{cfg: cfg, rdb: rdb, recorder: recorder, now: time.Now}
}

// Limit applies a per client and route token bucket. Requests pass through
// when limiting is disabled or redis is unavailable.
func (l *RateLimiter) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	if !l.cfg.Enabled || l.rdb == nil {
		return next
	}

	return func(c echo.Context) error {
		key := l.key(c)
		args := []interface{}{
			l.now().UnixMilli(),
			l.cfg.Capacity,
			l.cfg.RefillTokens,
			l.cfg.RefillInterval.Milliseconds(),
			int64(l.cfg.TTL / time.Second),
		}

		vals, err := tokenBucketScript.Run(c.Request().Context(), l.rdb, []string{key}, args...).Int64Slice()
		if err != nil || len(vals) != 3 {
			logrus.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
			return next(c)
		}

		c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
		c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))

		if vals[0] != 1 {
			retryAfter := int(math.Ceil(float64(vals[2]) / 1000))
			c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
			if l.recorder != nil {
				l.recorder.RecordRateLimited(c.Path())
			}
			logrus.WithFields(logrus.Fields{
				"ip":   c.RealIP(),
				"path": c.Path(),
			}).Info("Rate limit exceeded")
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests, please try again later",
			})
		}

		return next(c)
	}
}

func (l *RateLimiter) key(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{l.cfg.Prefix, "ip", ip, "route", c.Request().Method + " " + c.Path()}, ":")
}
