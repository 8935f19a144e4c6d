package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/pkg/logger"
)

var errTooManyRequests = &errors.AppError{
	Type:       errors.ErrorTypeValidation,
	Code:       errors.ErrCodeRateLimited,
	Message:    "too many requests, slow down",
	StatusCode: http.StatusTooManyRequests,
}

// LoginRateLimit caps attempts per client IP and minute. A non-positive
// limit disables it.
func LoginRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.From(r.Context()).Warn("login rate limit exceeded", "remote_addr", r.RemoteAddr)
			writeAppError(w, errTooManyRequests)
		}),
	)
}
