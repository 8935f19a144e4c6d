package middleware

import (
	"net/http"

	"github.com/unrolled/secure"

	"github.com/qnxg/yqwork/pkg/logger"
)

// SecureHeaders sets the standard hardening headers. SSL redirects are only
// enforced outside development.
func SecureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        !isDevelopment,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      isDevelopment,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.From(r.Context()).Warn("secure headers blocked request", "error", err, "host", r.Host)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
