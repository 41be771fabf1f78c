package httpapi

import (
	"context"
	"errors"

	"song-search-api/domain"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps an error to its HTTP status and client-facing message.
func statusFor(err error) (int, string) {
	var validation *domain.ValidationError
	var fe *fiber.Error

	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, validation.Message
	case errors.Is(err, domain.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, domain.ErrExpiredToken):
		return fiber.StatusUnauthorized, "Token has expired"
	case errors.Is(err, domain.ErrMissingToken), errors.Is(err, domain.ErrInvalidToken):
		return fiber.StatusUnauthorized, "Missing or invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "Unauthorized access"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "Upstream service timed out"
	case errors.Is(err, domain.ErrEmbedding):
		return fiber.StatusBadGateway, "Embedding service unavailable"
	case errors.Is(err, domain.ErrVectorStore):
		return fiber.StatusBadGateway, "Vector store unavailable"
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

// handleError is the fiber error handler: every failure leaves as a JSON body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code, message := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", code, "err", err)
	}
	return c.Status(code).JSON(ErrorResponse{Error: message})
}
