package internal

import (
	"context"
	"time"
)

const defaultTimeout = 5 * time.Second

type traceKey struct{}

// ContextWithTraceID stores the request trace id so that logs and error
// reports emitted deeper in the call chain can be correlated.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

// WithTimeout bounds ctx by d, or by five seconds when d is not positive.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
