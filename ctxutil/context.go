package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	// TraceIDKey is the log field name used for trace IDs
	TraceIDKey = "trace_id"

	traceIDKey ctxKey = TraceIDKey
)

// GetValue retrieves a value from the context.
func GetValue(ctx context.Context, key ctxKey) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(key)
}

// SetValue sets a value to the context.
func SetValue(ctx context.Context, key ctxKey, val any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, val)
}

// GetTraceID gets trace id from context.Context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := GetValue(ctx, traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// SetTraceID sets trace id to context.Context.
func SetTraceID(ctx context.Context, traceID string) context.Context {
	return SetValue(ctx, traceIDKey, traceID)
}

// EnsureTraceID ensures that a trace ID exists in the context.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		return ctx, traceID
	}
	traceID := uuid.NewString()
	return SetTraceID(ctx, traceID), traceID
}
