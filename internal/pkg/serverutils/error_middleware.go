package serverutils

import (
	"errors"

	"ethics-review-be/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into BaseResponse
// bodies with a status matching the error kind.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

// WriteError renders err as a JSON error response.
func WriteError(ctx *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ctx.Status(fiber.StatusBadRequest).JSON(ValidationErrorResponse(verr.Fields))
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
	}

	var aerr *apperr.Error
	if errors.As(err, &aerr) {
		code := apperr.HTTPStatus(aerr.Kind)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
}
