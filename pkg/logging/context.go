package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = iota
	// batchIDKey is the context key for the batch ID.
	batchIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Ctx returns a logger from the context or the default logger.
// This is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithBatchID adds a batch ID to the context for tracing a processing run.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	ctx = context.WithValue(ctx, batchIDKey, batchID)

	// Also update the logger with the batch ID
	logger := FromContext(ctx)
	newLogger := logger.With().Str("batch_id", batchID).Logger()
	return WithLogger(ctx, &newLogger)
}

// BatchID extracts the batch ID from context.
func BatchID(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey).(string); ok {
		return id
	}
	return ""
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := FromContext(ctx)
	logCtx := logger.With()
	logCtx = addFieldToContext(logCtx, key, value)
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// addFieldToContext adds a field to the logger context based on its type.
func addFieldToContext(ctx zerolog.Context, key string, value any) zerolog.Context {
	switch v := value.(type) {
	case string:
		return ctx.Str(key, v)
	case int:
		return ctx.Int(key, v)
	case bool:
		return ctx.Bool(key, v)
	case error:
		if key == "error" || key == "err" {
			return ctx.Err(v)
		}
		return ctx.Str(key, v.Error())
	default:
		return ctx.Interface(key, v)
	}
}

// WithVendor adds vendor context to the logger.
func WithVendor(ctx context.Context, vendor string) context.Context {
	return WithField(ctx, "vendor", vendor)
}

// WithLibrary adds library-system context to the logger.
func WithLibrary(ctx context.Context, library string) context.Context {
	return WithField(ctx, "library", library)
}

// WithWorkflow adds workflow context to the logger.
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return WithField(ctx, "workflow", workflow)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
