package middleware

import (
	"net/http"

	"github.com/google/uuid"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/pkg/logger"
)

const TraceHeader = "X-Trace-ID"

// RequestID propagates or mints a trace id and scopes the request logger
// to it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := errors.ContextWithTraceID(r.Context(), traceID)
		ctx = logger.With(ctx, "trace_id", traceID)

		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
