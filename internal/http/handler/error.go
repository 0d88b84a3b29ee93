package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"briefcase/internal/encryption"
	"briefcase/internal/http/middleware"
	"briefcase/internal/model"
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

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps domain failures to HTTP. Anything unrecognised is logged
// and reported as a 500.
func writeServiceError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	switch {
	case errors.Is(err, model.ErrRecipientNotFound):
		return writeError(c, fiber.StatusNotFound, "RECIPIENT_NOT_FOUND", "recipient not found")
	case errors.Is(err, model.ErrDocumentNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, model.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "access denied")
	case errors.Is(err, model.ErrExpired):
		return writeError(c, fiber.StatusGone, "DOCUMENT_EXPIRED", "document has expired")
	case errors.Is(err, model.ErrLimitReached):
		return writeError(c, fiber.StatusGone, "VIEW_LIMIT_REACHED", "document reached its view limit")
	case errors.Is(err, model.ErrInvalidParams):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PARAMS", "invalid parameters")
	case errors.Is(err, encryption.ErrMalformedCiphertext):
		logFailure(c, log, err)
		return writeError(c, fiber.StatusInternalServerError, "INTEGRITY_ERROR", "stored document is corrupted")
	default:
		logFailure(c, log, err)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func logFailure(c *fiber.Ctx, log logrus.FieldLogger, err error) {
	log.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"method":     c.Method(),
		"path":       c.Path(),
	}).WithError(err).Error("request failed")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "not authenticated")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
