package api

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cards/pkg/auth"
	"github.com/papercomputeco/cards/pkg/card"
	"github.com/papercomputeco/cards/pkg/vector"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks request bodies that could not be parsed.
var errBadRequest = errors.New("bad request")

// statusFor maps an error onto the HTTP status returned to the client.
func statusFor(err error) int {
	var fe *fiber.Error
	var ve validator.ValidationErrors

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &ve), errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest
	case errors.Is(err, card.ErrMalformedID), errors.Is(err, card.ErrInvalidPage), errors.Is(err, card.ErrDecode):
		return fiber.StatusBadRequest
	case errors.Is(err, card.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrMissingOwner):
		return fiber.StatusUnauthorized
	case errors.Is(err, vector.ErrEmbedding):
		return fiber.StatusBadGateway
	case errors.Is(err, vector.ErrConnection):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// messageFor hides internal details of server-side failures.
func messageFor(status int, err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return formatValidationError(ve)
	}

	switch {
	case status < fiber.StatusInternalServerError:
		return err.Error()
	case status == fiber.StatusBadGateway:
		return "embedding provider failed"
	case status == fiber.StatusServiceUnavailable:
		return "vector store unavailable"
	case status == fiber.StatusGatewayTimeout:
		return "request timed out"
	default:
		return "internal server error"
	}
}

// handleError is the fiber error handler. It writes the JSON error body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	} else {
		s.logger.Debug("request rejected",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"error", err,
		)
	}

	return c.Status(status).JSON(ErrorResponse{Error: messageFor(status, err)})
}
