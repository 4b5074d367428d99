package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyFunc builds a rate-limit key from the request
type KeyFunc func(c echo.Context) string

// KeyByIPAndPath limits each client per route
func KeyByIPAndPath() KeyFunc {
	return func(c echo.Context) string {
		ip := c.RealIP()
		if ip == "" {
			ip = "unknown"
		}
		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		return "rl:path:" + path + ":ip:" + ip
	}
}

// INCR and set the window expiry on first hit, atomically
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimit is a fixed-window limiter backed by Redis. Only POSTs are counted
// so rendering the login form never locks anyone out. A nil client disables it,
// and Redis errors let the request through.
func RateLimit(rdb *redis.Client, max int, window time.Duration, keyFn KeyFunc, log *logrus.Logger) echo.MiddlewareFunc {
	if rdb == nil || max <= 0 || window <= 0 || keyFn == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost {
				return next(c)
			}

			ctx := c.Request().Context()
			key := keyFn(c)

			count, err := incrExpireScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int64()
			if err != nil {
				log.WithError(err).Warn("Rate limiter unavailable")
				return next(c)
			}

			resetSec := 0
			if ttl, err := rdb.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
				resetSec = int((ttl + time.Second - 1) / time.Second)
			}

			remaining := max - int(count)
			if remaining < 0 {
				remaining = 0
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if int(count) > max {
				if resetSec > 0 {
					h.Set("Retry-After", strconv.Itoa(resetSec))
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please try again later.")
			}
			return next(c)
		}
	}
}
