package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	apperrors "github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

// RegisterMiddlewares attaches global middlewares such as logging, error
// handling and the request timeout, outermost first.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Error("panic recovered", zap.Any("panic", e), zap.String("path", c.Path()), zap.Stack("stack"))
		},
	}))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// IsAPIPath reports whether path is served to machines rather than browsers.
func IsAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/health/") || path == "/metrics"
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware turns any error into a response: the JSON envelope
// for API paths, the 404 or error page for browsers.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		domainErr := toDomainError(err)
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
		}

		if IsAPIPath(c.Path()) {
			return writeJSONError(c, domainErr)
		}
		return writeErrorPage(c, domainErr, logger)
	}
}

func writeJSONError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

func writeErrorPage(c *fiber.Ctx, domainErr *apperrors.DomainError, logger *zap.Logger) error {
	var err error
	if domainErr.HTTPStatus == http.StatusNotFound {
		err = handlers.RenderPage(c, http.StatusNotFound, handlers.PageNotFound, nil)
	} else {
		message := domainErr.Message
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			message = genericErrorMessage
		}
		err = handlers.RenderPage(c, domainErr.HTTPStatus, handlers.PageError, fiber.Map{
			"message": message,
			"status":  domainErr.HTTPStatus,
		})
	}
	if err != nil {
		// Rendering itself failed; fall back to plain text.
		logger.Error("render error page", zap.Error(err))
		return c.Status(domainErr.HTTPStatus).SendString(http.StatusText(domainErr.HTTPStatus))
	}
	return nil
}

// toDomainError also understands the *fiber.Error values produced by routing,
// body parsing and the csrf middleware.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case http.StatusNotFound:
			return apperrors.NewDomainError(apperrors.CodeNotFound, "route not found", http.StatusNotFound, nil)
		case http.StatusForbidden:
			return apperrors.NewDomainError("FORBIDDEN", fiberErr.Message, http.StatusForbidden, nil)
		case http.StatusMethodNotAllowed:
			return apperrors.NewDomainError("METHOD_NOT_ALLOWED", fiberErr.Message, http.StatusMethodNotAllowed, nil)
		}
		if fiberErr.Code < http.StatusInternalServerError {
			return apperrors.NewDomainError(fmt.Sprintf("HTTP_%d", fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
		}
	}
	return apperrors.ToDomainError(err)
}
