package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Logger writes one access-log entry per request with request_id, method,
// path, status and latency (milliseconds). Register it after RequestID.
func Logger(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		rid, _ := c.Locals(RequestIDLocalKey).(string)

		entry := log.WithFields(logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return err
	}
}
