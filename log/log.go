// Package log carries a zap-backed, fire-and-forget logging handler inside a
// context.Context.
//
// Code that only holds a context logs through Effect; whoever owns the
// context decides where entries go by installing a handler with
// WithZapEffectHandler. Without a handler, Effect is a no-op.
package log

import (
	"context"

	"github.com/reganan/icestore/internal/dispatch"
	"go.uber.org/zap"
)

// LogLevel defines the severity level for log messages.
type LogLevel string

const (
	// LogInfo is used for general informational messages.
	LogInfo LogLevel = "info"

	// LogWarn is used for potentially harmful situations.
	LogWarn LogLevel = "warn"

	// LogError is used for error events that might still allow the application to continue running.
	LogError LogLevel = "error"

	// LogDebug is used for debugging messages with detailed internal information.
	LogDebug LogLevel = "debug"
)

// LogPayload is one structured log entry.
type LogPayload struct {
	Level   LogLevel
	Message string
	Fields  map[string]interface{}
}

type handlerKey struct{}

// WithZapEffectHandler installs a log handler writing to logger.
//
// Entries are queued (up to bufferSize) and written by a single worker, so
// callers never block on I/O. The returned function drains the queue, syncs
// the logger and returns the parent context.
func WithZapEffectHandler(
	ctx context.Context,
	bufferSize int,
	logger *zap.Logger,
) (context.Context, func() context.Context) {
	queue := dispatch.NewSingleQueue(
		ctx,
		bufferSize,
		func(_ context.Context, payload LogPayload) {
			write(logger, payload)
		},
	)
	ctxWith := context.WithValue(ctx, handlerKey{}, queue)
	logger.Debug("created log effect handler", zap.String("effectId", queue.ID()))

	return ctxWith, func() context.Context {
		queue.Close()
		if err := logger.Sync(); err != nil {
			logger.Debug("failed to sync logger", zap.Error(err))
		}
		return ctx
	}
}

// Effect emits a log entry through the handler installed in ctx.
func Effect(ctx context.Context, level LogLevel, msg string, fields map[string]interface{}) {
	queue, ok := ctx.Value(handlerKey{}).(dispatch.Dispatcher[LogPayload])
	if !ok {
		return
	}
	queue.Dispatch(ctx, LogPayload{
		Level:   level,
		Message: msg,
		Fields:  fields,
	})
}

func write(logger *zap.Logger, payload LogPayload) {
	fields := make([]zap.Field, 0, len(payload.Fields))
	for k, v := range payload.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch payload.Level {
	case LogInfo:
		logger.Info(payload.Message, fields...)
	case LogWarn:
		logger.Warn(payload.Message, fields...)
	case LogError:
		logger.Error(payload.Message, fields...)
	case LogDebug:
		logger.Debug(payload.Message, fields...)
	default:
		logger.Info(payload.Message, fields...)
	}
}
