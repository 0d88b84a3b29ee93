package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimiter is a fixed-window limiter shared by every replica through Redis.
// Each (scope, caller, window) gets one counter key that expires with the window.
type RateLimiter struct {
	client  redis.Cmdable
	allowed int64
	window  time.Duration
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewRateLimiter allows perWindow requests per caller in each window. Windows are
// whole seconds; shorter ones are raised to one second.
func NewRateLimiter(client redis.Cmdable, perWindow int, window time.Duration, log logrus.FieldLogger) *RateLimiter {
	if window < time.Second {
		window = time.Second
	}
	if perWindow < 1 {
		perWindow = 1
	}
	return &RateLimiter{
		client:  client,
		allowed: int64(perWindow),
		window:  window,
		log:     log,
		now:     time.Now,
	}
}

// Handler limits requests for scope. Callers are keyed by user id when Auth ran
// before it, else by client IP. Redis failures let the request through.
func (l *RateLimiter) Handler(scope string) fiber.Handler {
	windowSeconds := int64(l.window / time.Second)

	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if id, ok := UserID(c); ok {
			caller = "user:" + strconv.FormatInt(id, 10)
		}
		bucket := l.now().Unix() / windowSeconds
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, caller, bucket)

		ctx := c.UserContext()
		var incr *redis.IntCmd
		_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, l.window+time.Second)
			return nil
		})
		if err != nil {
			l.log.WithError(err).WithField("scope", scope).Warn("rate limit check failed")
			return c.Next()
		}

		if incr.Val() > l.allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(windowSeconds, 10))
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}
