package handlers

import (
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/logging"
	"marketplace/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var (
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateKeyError
		validation *models.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &duplicate), errors.As(err, &validation), errors.Is(err, models.ErrDuplicateRating):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body every endpoint shares. message is the
// human summary; it is replaced by the error text itself for not-found and
// duplicate-key failures, which already say what is wrong.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	var (
		notFound  *models.NotFoundError
		duplicate *models.DuplicateKeyError
	)
	switch {
	case errors.As(err, &notFound):
		message = fmt.Sprintf("%s not found", capitalize(notFound.Entity))
	case errors.As(err, &duplicate):
		message = fmt.Sprintf("%s already taken", capitalize(duplicate.Field))
	}

	logger := logging.FromContext(c.UserContext())
	if status >= fiber.StatusInternalServerError {
		logger.Error(message, "error", err)
	} else {
		logger.Debug(message, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

// validationFailed reports struct validation errors per field.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest(c, err)
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"error":   err.Error(),
		"errors":  errorMessages,
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
