package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briefcase/internal/logging"
)

func newLimitedApp(t *testing.T, perWindow int) (*fiber.App, *RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRateLimiter(client, perWindow, time.Second, logging.Discard())
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }

	app := fiber.New()
	app.Get("/r", limiter.Handler("login"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/u/:id", func(c *fiber.Ctx) error {
		c.Locals(UserIDLocalKey, int64(len(c.Params("id"))))
		return c.Next()
	}, limiter.Handler("download"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app, limiter, m
}

func TestRateLimiter(t *testing.T) {
	app, limiter, m := newLimitedApp(t, 2)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/r", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/r", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	next := limiter.now().Add(time.Second)
	limiter.now = func() time.Time { return next }

	resp, err = app.Test(httptest.NewRequest("GET", "/r", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.NotEmpty(t, m.Keys())
}

func TestRateLimiter_KeysByUser(t *testing.T) {
	app, _, _ := newLimitedApp(t, 1)

	resp, _ := app.Test(httptest.NewRequest("GET", "/u/a", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest("GET", "/u/b", nil))
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, _ = app.Test(httptest.NewRequest("GET", "/u/bb", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	app, _, m := newLimitedApp(t, 1)
	m.Close()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/r", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestNewRateLimiter_Bounds(t *testing.T) {
	l := NewRateLimiter(nil, 0, time.Millisecond, logging.Discard())
	assert.Equal(t, int64(1), l.allowed)
	assert.Equal(t, time.Second, l.window)
}
