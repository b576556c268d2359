package logger

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type contextKey string

const (
	ContextLoggerValue contextKey = "logger"

	EventFinishedSuccessfully = "event successfully finished"

	requestIdLocalsKey = "requestid"
)

var defaultLogger = newDefaultLogger()

func newDefaultLogger() *zap.SugaredLogger {
	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}

// Middleware puts a request scoped logger into the user context of every request.
// It must be registered after the requestid middleware.
func Middleware(log *zap.SugaredLogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestLog := log.With(
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
		)

		requestId, isOk := ctx.Locals(requestIdLocalsKey).(string)
		if isOk && requestId != "" {
			requestLog = requestLog.With(zap.String("requestId", requestId))
		}

		userCtx := ctx.UserContext()
		requestLog = withLambdaRequestId(userCtx, requestLog)

		ctx.SetUserContext(InjectContext(userCtx, requestLog))
		return ctx.Next()
	}
}

// FromContext returns the logger injected into ctx. Without one it falls back
// to a shared production logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	logger, isOk := ctx.Value(ContextLoggerValue).(*zap.SugaredLogger)
	if isOk {
		return logger
	}

	return withLambdaRequestId(ctx, defaultLogger)
}

func withLambdaRequestId(ctx context.Context, log *zap.SugaredLogger) *zap.SugaredLogger {
	lambdaCtx, isOk := lambdacontext.FromContext(ctx)
	if !isOk {
		return log
	}
	return log.With(zap.String("lambdaRequestId", lambdaCtx.AwsRequestID))
}

func InjectContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ContextLoggerValue, log)
}
