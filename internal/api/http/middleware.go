package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/discord-modmail/modmail/internal/auth"
	"github.com/discord-modmail/modmail/internal/extensions"
	"github.com/discord-modmail/modmail/internal/extensions/blocklist"
	"github.com/discord-modmail/modmail/internal/observability"
	"github.com/discord-modmail/modmail/internal/service"
	"github.com/discord-modmail/modmail/pkg/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger wraps the error middleware so it records the mapped status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestIDMiddleware())
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(observability.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(observability.RequestIDKey, requestID)
		c.Set(observability.RequestIDHeader, requestID)
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("request_id", observability.RequestID(c)),
					zap.ByteString("stack", debug.Stack()))
				err = errorutil.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("path", c.Path()),
						zap.String("request_id", observability.RequestID(c)),
						zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError maps errors of the bot packages to API errors before falling back to
// errorutil.
func toDomainError(err error) *errorutil.DomainError {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return errorutil.NewDomainError(fiberErrorCode(fe.Code), fe.Message, fe.Code, nil)
	case errors.Is(err, service.ErrTicketNotFound):
		return asDomain(errorutil.NewNotFound("ticket", nil))
	case errors.Is(err, service.ErrTicketClosed):
		return asDomain(errorutil.NewConflict("ticket is closed", nil))
	case errors.Is(err, extensions.ErrExtensionNotFound):
		return asDomain(errorutil.NewNotFound("extension", nil))
	case errors.Is(err, extensions.ErrAlreadyLoaded),
		errors.Is(err, extensions.ErrNotLoaded),
		errors.Is(err, extensions.ErrNoUnload):
		return asDomain(errorutil.Wrap(errorutil.NewConflict(err.Error(), nil), err))
	case errors.Is(err, blocklist.ErrInvalidUserID):
		return asDomain(errorutil.NewValidationError("invalid user id", nil))
	case errors.Is(err, auth.ErrInvalidCredentials):
		return asDomain(errorutil.NewUnauthorized("invalid credentials"))
	}
	return errorutil.ToDomainError(err)
}

func asDomain(err error) *errorutil.DomainError {
	return err.(*errorutil.DomainError)
}

func fiberErrorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "VALIDATION_FAILED"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
