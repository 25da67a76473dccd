// Package log threads a zap logger and a set of accumulated
// fields through a context.
package log

import (
	"context"

	"go.uber.org/zap"
)

type key int

const (
	fieldsKey key = iota
	loggerKey
)

// WithFields adds log fields to the context
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	existing := Fields(ctx)
	combined := make([]zap.Field, 0, len(existing)+len(fields))
	combined = append(combined, existing...)
	combined = append(combined, fields...)

	return context.WithValue(ctx, fieldsKey, combined)
}

// Fields extracts log fields from the context
func Fields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(fieldsKey).([]zap.Field)

	if !ok {
		return []zap.Field{}
	}

	return fields
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the logger carried by ctx, or defaultLogger if
// there is none, enriched with the fields carried by ctx.
// A nil defaultLogger is replaced with a no-op logger.
func Logger(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	logger, ok := ctx.Value(loggerKey).(*zap.Logger)

	if !ok || logger == nil {
		logger = defaultLogger
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return logger.With(Fields(ctx)...)
}
