package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docvault/internal/errs"
	"docvault/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// classify maps the errs taxonomy onto an HTTP status, code and caller-safe message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		// validation reasons are written to be shown to callers
		return fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	case errors.Is(err, errs.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, errs.ErrNotCommitted):
		return fiber.StatusConflict, "NOT_COMMITTED", "document has no committed version"
	case errors.Is(err, errs.ErrConflict):
		return fiber.StatusConflict, "CONFLICT", "concurrent update, retry the request"
	case errors.Is(err, errs.ErrShareExpired):
		return fiber.StatusGone, "SHARE_EXPIRED", "share link has expired"
	case errors.Is(err, errs.ErrStorage):
		return fiber.StatusBadGateway, "STORAGE_ERROR", "object storage unavailable"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

// fail writes the response for a service error and keeps the cause for the request log.
func fail(c *fiber.Ctx, err error) error {
	c.Locals(middleware.ErrorLocalKey, err)
	status, code, msg := classify(err)
	return writeError(c, status, code, msg)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// Errors that reach it unhandled are logged at error level.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			status, code, msg := classify(err)
			if status >= fiber.StatusInternalServerError {
				log.Error("unhandled_error", zap.String("request_id", requestIDFromCtx(c)), zap.Error(err))
			}
			return writeError(c, status, code, msg)
		}

		switch fe.Code {
		case fiber.StatusBadRequest:
			return writeError(c, fe.Code, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, fe.Code, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, fe.Code, "RATE_LIMITED", "too many requests, try again later")
		default:
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
	}
}
