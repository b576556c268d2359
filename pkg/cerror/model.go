package cerror

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CustomError is a domain error carrying the HTTP status and message shown to the
// client together with how it should be logged at the boundary.
type CustomError struct {
	HttpStatusCode int
	LogMessage     string
	LogSeverity    zapcore.Level
	LogFields      []zapcore.Field
	Errors         []string
}

func NewError(httpStatusCode int, message string, logFields ...zap.Field) *CustomError {
	return &CustomError{
		HttpStatusCode: httpStatusCode,
		LogMessage:     message,
		LogSeverity:    zapcore.ErrorLevel,
		LogFields:      logFields,
	}
}

func (cerr *CustomError) Error() string {
	return fmt.Sprintf("%d: %s", cerr.HttpStatusCode, cerr.LogMessage)
}

func (cerr *CustomError) SetSeverity(severity zapcore.Level) *CustomError {
	cerr.LogSeverity = severity
	return cerr
}

func (cerr *CustomError) SetErrors(errors []string) *CustomError {
	cerr.Errors = errors
	return cerr
}
