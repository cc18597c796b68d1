package middleware

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/show-tracker/internal/config"
)

// takeToken refills the bucket at KEYS[1] for the whole intervals elapsed
// since the last refill, then tries to take one token.  It returns
// {allowed (0|1), tokens left, ms until the next refill when denied}.
//
//  ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_seconds
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens = tonumber(state[1]) or capacity
local refilled_at = tonumber(state[2]) or now

local steps = math.floor(math.max(0, now - refilled_at) / interval)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  refilled_at = refilled_at + steps * interval
end

local allowed, wait = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  wait = math.max(0, interval - (now - refilled_at))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled_at)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// NewTokenBucket limits requests with a token bucket kept in Redis, one
// bucket per key (see buildRateKey).  Without Redis every request passes
// and Redis errors fail open.  A denied request ends in a 429
// echo.HTTPError, which the router renders as an envelope.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    logger = logger.With().Str("component", "ratelimit").Logger()
    limit := strconv.Itoa(cfg.Capacity)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            vals, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(vals) != 3 {
                logger.Warn().Err(err).Str("key", key).Msg("token bucket unavailable, allowing request")
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", limit)
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(vals[1], 10))
            if vals[0] == 1 {
                return next(c)
            }

            wait := time.Duration(vals[2]) * time.Millisecond
            h.Set("Retry-After", strconv.FormatInt(int64((wait+time.Second-1)/time.Second), 10)) // whole seconds, rounded up
            logger.Debug().Str("key", key).Dur("retry_after", wait).Msg("rate limited")
            return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests")
        }
    }
}

// buildRateKey names the bucket for the request according to
// cfg.KeyStrategy: "ip", "route", or both (the default).
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "route":
        parts = append(parts, "route", route)
    default:
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
