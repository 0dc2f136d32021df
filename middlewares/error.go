package middlewares

import (
	"errors"

	"rentbook-backend/logger"
	"rentbook-backend/rental"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[rental.Kind]int{
	rental.KindNotFound:          fiber.StatusNotFound,
	rental.KindConflict:          fiber.StatusConflict,
	rental.KindInvalidTransition: fiber.StatusConflict,
	rental.KindInvalidState:      fiber.StatusConflict,
	rental.KindValidation:        fiber.StatusUnprocessableEntity,
}

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Validation errors (422 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 3) Booking engine errors
	kind := rental.KindOf(err)
	if status, ok := kindStatus[kind]; ok {
		body := fiber.Map{"message": err.Error(), "error": kind}
		var te *rental.TransitionError
		if errors.As(err, &te) {
			body["from"] = te.From
			body["to"] = te.To
		}
		return c.Status(status).JSON(body)
	}

	// 4) Unknown errors (500)
	logger.Log.Error("internal error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}
