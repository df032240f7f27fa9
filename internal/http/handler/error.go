package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"reportvault/internal/http/middleware"
	"reportvault/internal/service"
	"reportvault/internal/storage"
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

// writeServiceError translates the typed gateway errors into HTTP responses.
// Every expected failure has a stable machine-readable code; anything
// unrecognized collapses into INTERNAL_ERROR with no detail attached.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "report id is required")
	case errors.Is(err, service.ErrReportNotFound):
		return writeError(c, fiber.StatusNotFound, "REPORT_NOT_FOUND", "report not found")
	case errors.Is(err, service.ErrFileMissing), errors.Is(err, storage.ErrFileNotFound):
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "report file does not exist or has been removed")
	case errors.Is(err, storage.ErrInvalidPath):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PATH", "report file path is invalid")
	case errors.Is(err, storage.ErrUnsupportedExtension):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_EXTENSION", "file extension is not allowed")
	case errors.Is(err, storage.ErrUnsupportedType):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "file type is not allowed")
	case errors.Is(err, storage.ErrFileTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the maximum allowed size")
	case errors.Is(err, storage.ErrFileEmpty):
		return writeError(c, fiber.StatusBadRequest, "FILE_EMPTY", "file is empty")
	case errors.Is(err, storage.ErrInvalidFilename):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILENAME", "filename contains disallowed characters")
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "sign in to download this report")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "you do not have access to this report")
	case errors.Is(err, service.ErrRateLimited):
		return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many downloads, try again shortly")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
