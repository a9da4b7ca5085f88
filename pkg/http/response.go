// Package http renders the JSON bodies shared by every API handler.
package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/IT-Nick/question-bank/internal/domain/errs"
	"github.com/IT-Nick/question-bank/internal/domain/validation"
)

// Success writes {success:true, message, data}. An empty message or nil data is omitted.
func Success(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

// Accepted answers a queued write.
func Accepted(c *fiber.Ctx, messageID string) error {
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":   true,
		"messageId": messageID,
	})
}

// ErrorResponse writes {success:false, message}.
func ErrorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// Fail maps err to a status code. Validation failures list every violation,
// anything unrecognised is logged and reported as a 500 with message.
func Fail(c *fiber.Ctx, err error, message string) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"errors":  verr.Errors,
		})
	case errors.Is(err, errs.ErrNotFound):
		return failure(c, fiber.StatusNotFound, message, err)
	case errors.Is(err, errs.ErrUnknownEvent):
		return failure(c, fiber.StatusBadRequest, message, err)
	case errors.Is(err, errs.ErrAsyncDisabled):
		return failure(c, fiber.StatusServiceUnavailable, message, err)
	}

	slog.Error(message, "path", c.Path(), "error", err)
	return failure(c, fiber.StatusInternalServerError, message, err)
}

func failure(c *fiber.Ctx, status int, message string, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
