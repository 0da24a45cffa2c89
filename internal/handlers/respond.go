package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"souq/internal/apperr"
)

// errorResponse maps a domain error to an HTTP response. Kinded errors carry
// a caller-safe message; everything else becomes a generic 500 so internals
// never leak.
func errorResponse(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)

	status := fiber.StatusInternalServerError
	switch kind {
	case apperr.KindValidation, apperr.KindInsufficientStock:
		status = fiber.StatusBadRequest
	case apperr.KindConflict:
		status = fiber.StatusConflict
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"message": "Something went wrong, please try again",
			"error":   string(kind),
		})
	}

	var e *apperr.Error
	message := err.Error()
	if errors.As(err, &e) {
		message = e.Message
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   string(kind),
	})
}
