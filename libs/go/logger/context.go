package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const correlationIDContextKey contextKey = "correlationID"

// ContextWithCorrelationID adds correlation ID to context
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

// CorrelationIDFromContext retrieves correlation ID from context
func CorrelationIDFromContext(ctx context.Context) string {
	if id := ctx.Value(correlationIDContextKey); id != nil {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}

// FromContext returns the global logger tagged with the context's correlation ID
func FromContext(ctx context.Context) *zap.Logger {
	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		return L().With(zap.String("correlation_id", correlationID))
	}
	return L()
}
