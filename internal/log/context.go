package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ContextWithRequestID stores the provided request ID in the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger enriched with the request ID of ctx, or the base logger.
func FromContext(ctx context.Context) zerolog.Logger {
	l := logger()
	if rid := RequestIDFromContext(ctx); rid != "" {
		l = l.With().Str("request_id", rid).Logger()
	}
	return l
}

// WithComponentFromContext returns a component logger enriched with context fields.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return FromContext(ctx).With().Str("component", component).Logger()
}
