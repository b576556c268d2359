package cerror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"account-api/pkg/logger"
	"account-api/pkg/response"
)

// Middleware is the fiber error handler. Every error returned from a route ends
// up here and is written as a response envelope.
func Middleware(ctx *fiber.Ctx, err error) error {
	log := logger.FromContext(ctx.UserContext()).Desugar()

	var cerr *CustomError
	if errors.As(err, &cerr) {
		for _, field := range cerr.LogFields {
			log = log.With(field)
		}
		log.Log(cerr.LogSeverity, cerr.LogMessage, zap.Int("httpStatus", cerr.HttpStatusCode))

		return ctx.
			Status(cerr.HttpStatusCode).
			JSON(response.NewError(cerr.HttpStatusCode, cerr.LogMessage, cerr.Errors))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		message := fiberErr.Message
		if fiberErr.Code == fiber.StatusNotFound {
			message = MessageRouteNotFound
		}
		log.Warn(message, zap.Int("httpStatus", fiberErr.Code), zap.Error(err))

		return ctx.
			Status(fiberErr.Code).
			JSON(response.NewError(fiberErr.Code, message, nil))
	}

	log.Error("unhandled error", zap.Error(err))
	return ctx.
		Status(fiber.StatusInternalServerError).
		JSON(response.NewError(fiber.StatusInternalServerError, MessageInternalServerError, nil))
}
