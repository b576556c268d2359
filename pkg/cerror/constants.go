package cerror

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	MessageInternalServerError = "Internal Server Error"
	MessageRouteNotFound       = "Route not found"
	MessageUserNotFound        = "User not found"
)

func NewValidationError(message string, violations ...string) *CustomError {
	return NewError(fiber.StatusBadRequest, message).
		SetSeverity(zapcore.WarnLevel).
		SetErrors(violations)
}

func NewAuthenticationError(message string, logFields ...zap.Field) *CustomError {
	return NewError(fiber.StatusUnauthorized, message, logFields...).
		SetSeverity(zapcore.WarnLevel)
}

func NewAuthorizationError(message string) *CustomError {
	return NewError(fiber.StatusForbidden, message).
		SetSeverity(zapcore.WarnLevel)
}

func NewNotFoundError(message string) *CustomError {
	return NewError(fiber.StatusNotFound, message).
		SetSeverity(zapcore.WarnLevel)
}

func NewConflictError(message string) *CustomError {
	return NewError(fiber.StatusConflict, message).
		SetSeverity(zapcore.WarnLevel)
}

func NewInternalError(message string, logFields ...zap.Field) *CustomError {
	return NewError(fiber.StatusInternalServerError, message, logFields...)
}
