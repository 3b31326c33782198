package observability

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/pkg/errorutil"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the fiber locals key holding the request id.
	RequestIDKey = "requestID"
)

// RequestID returns the id stored by the request id middleware, if any.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// RequestLogger logs every request and feeds the request metrics. It reads the
// status from the response, so it has to run outside the error middleware to see
// mapped errors. Errors still pending when it returns are mapped here.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		var (
			fe *fiber.Error
			de *errorutil.DomainError
		)
		switch {
		case errors.As(err, &fe):
			status = fe.Code
		case errors.As(err, &de):
			status = de.HTTPStatus
		}

		path := c.Path()
		if route := c.Route(); route != nil && route.Path != "" {
			path = route.Path
		}
		metrics.RecordRequest(path, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.String("ip", c.IP()),
			zap.String("request_id", RequestID(c)),
		}
		if err != nil || status >= fiber.StatusBadRequest {
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			logger.Warn("request failed", fields...)
		} else {
			logger.Info("request completed", fields...)
		}
		return err
	}
}
