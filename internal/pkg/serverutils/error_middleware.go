package serverutils

import (
	"context"
	"errors"

	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/factory"
	"email-onboarding-be/pkg/reconcile"
	"email-onboarding-be/pkg/schema"
	"email-onboarding-be/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON
// error envelope with a status derived from the error type.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := mapError(err)
		return ctx.Status(status).JSON(body)
	}
}

func mapError(err error) (int, *Response[any]) {
	var (
		fiberErr      *fiber.Error
		validationErr *ValidationError
		notFound      *schema.SchemaNotFoundError
		invalid       *schema.SchemaInvalidError
		intentErr     *validation.IntentTargetMissingError
		unresolved    *inject.UnresolvedPlaceholderError
		providerErr   *provider.ProviderError
	)

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, ErrorResponseWithData(fiber.StatusBadRequest, err.Error(), validationErr.Fields)
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, ErrorResponse(fiber.StatusNotFound, err.Error())
	case errors.As(err, &invalid),
		errors.Is(err, merge.ErrNoBusinessTypes),
		errors.Is(err, factory.ErrUnsupportedProvider),
		errors.Is(err, provider.ErrNoCredentials):
		return fiber.StatusBadRequest, ErrorResponse(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &intentErr):
		return fiber.StatusUnprocessableEntity, ErrorResponseWithData(fiber.StatusUnprocessableEntity, err.Error(), intentErr.Violations)
	case errors.Is(err, reconcile.ErrLockNotAcquired):
		return fiber.StatusConflict, ErrorResponse(fiber.StatusConflict, err.Error())
	case errors.As(err, &unresolved):
		return fiber.StatusInternalServerError, ErrorResponseWithData(fiber.StatusInternalServerError, err.Error(), unresolved.Tokens)
	case errors.As(err, &providerErr):
		return fiber.StatusBadGateway, ErrorResponse(fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, ErrorResponse(fiber.StatusGatewayTimeout, err.Error())
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	default:
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
	}
}
