package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
	"github.com/kvishal2109/magicofresinn/internal/services"
)

// ErrorHandler renders every error returned by a handler as
// {"success": false, "error": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *apperr.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   verr.Error(),
			"fields":  verr.Fields,
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		return failure(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, apperr.ErrNotFound):
		return failure(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPaymentAlreadySubmitted):
		return failure(c, fiber.StatusConflict, "Payment details already submitted for this order")
	case errors.Is(err, apperr.ErrConflict):
		return failure(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &ferr):
		return failure(c, ferr.Code, ferr.Message)
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	return failure(c, fiber.StatusInternalServerError, "internal server error")
}

func failure(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}
