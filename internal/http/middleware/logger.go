package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Logger writes one line per request with request_id, method, path, status and
// latency (milliseconds). Run it after RequestID.
func Logger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid := GetRequestID(c)
		status := statusOf(c, err)

		entry := log.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})
		if status >= fiber.StatusInternalServerError {
			entry.Error("request")
		} else {
			entry.Info("request")
		}

		return err
	}
}

// statusOf reports the status the error handler will send for err.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
