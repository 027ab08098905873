package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/response"
)

// CounterStore is the part of the Redis client the limiter needs.
type CounterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window per-IP limiter backed by Redis counters, so
// every server replica shares the same budget.
type RateLimiter struct {
	store  CounterStore
	scope  string
	limit  int
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewRateLimiter allows limit requests per window for each client IP within scope.
func NewRateLimiter(store CounterStore, scope string, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		scope:  scope,
		limit:  limit,
		window: window,
		log:    log.With().Str("component", "rate_limiter").Str("scope", scope).Logger(),
		now:    time.Now,
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		now := rl.now()
		windowSec := int64(rl.window / time.Second)
		if windowSec <= 0 {
			windowSec = 1
		}
		slot := now.Unix() / windowSec
		key := config.CacheKey.RateLimitKey(rl.scope, c.ClientIP(), slot)

		ctx := c.Request.Context()
		count, err := rl.store.Incr(ctx, key).Result()
		if err != nil {
			// Fail open: losing Redis must not take logins down with it.
			rl.log.Warn().Err(err).Msg("Rate limit counter unavailable")
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.store.Expire(ctx, key, rl.window).Err(); err != nil {
				rl.log.Warn().Err(err).Msg("Failed to set rate limit expiry")
			}
		}

		if count > int64(rl.limit) {
			retry := (slot+1)*windowSec - now.Unix()
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
