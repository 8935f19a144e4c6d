package middleware

import (
	"encoding/json"
	"net/http"

	errors "github.com/qnxg/yqwork/internal"
	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/pkg/logger"
)

// RequirePermissions lets the request through when the caller holds at
// least one of permissions, using hierarchical matching.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := coreUser.PrincipalFromContext(r.Context())
			if !ok {
				writeAppError(w, errors.ErrInvalidToken)
				return
			}

			if !p.Permissions.HasAny(permissions...) {
				logger.From(r.Context()).Warn("access denied: missing permission",
					"user_id", p.ID,
					"required_permissions", permissions,
					"path", r.URL.Path)
				writeAppError(w, errors.ErrPermissionDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin only admits callers that pass the admin check.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := coreUser.PrincipalFromContext(r.Context())
		if !ok {
			writeAppError(w, errors.ErrInvalidToken)
			return
		}
		if !p.Permissions.IsAdmin() {
			logger.From(r.Context()).Warn("access denied: admin required", "user_id", p.ID, "path", r.URL.Path)
			writeAppError(w, errors.ErrPermissionDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
