package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/pkg/logger"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// Envelope is the success body shape shared by every endpoint.
type Envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"msg"`
}

// Page is the list payload used by paginated endpoints.
type Page[T any] struct {
	Total int64 `json:"count"`
	Rows  []T   `json:"rows"`
}

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteData wraps data in the success envelope.
func (h *BaseHandler) WriteData(w http.ResponseWriter, data any) {
	h.WriteJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Data: data, Message: "ok"})
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	h.WriteJSON(w, status, Envelope{Code: status, Message: message})
}

// HandleServiceError maps an error returned by a service to its HTTP
// representation. Anything that is not an AppError is reported as 500
// without leaking the underlying message.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := errors.IsAppError(err)
	if !ok || appErr.Type == errors.ErrorTypeInternal {
		h.Logger.Error("unhandled service error", "error", err)
		appErr = errors.NewInternalError("internal server error", err)
	} else {
		h.Logger.Debug("service error", "code", appErr.Code, "error", err)
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", errors.ErrCodeInvalidRequest).WithCause(err)
	}
	return nil
}

// URLParamInt64 reads a positive integer path parameter.
func (h *BaseHandler) URLParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationFieldError(name, name+" must be a positive integer", errors.ErrCodeInvalidRequest)
	}
	return id, nil
}

// QueryInt64 reads an optional integer query parameter.
func (h *BaseHandler) QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.NewValidationFieldError(name, name+" must be an integer", errors.ErrCodeInvalidRequest)
	}
	return &v, nil
}

// Pagination returns limit and offset derived from page and pageSize.
func (h *BaseHandler) Pagination(r *http.Request) (limit, offset int) {
	page := parsePositive(r.URL.Query().Get("page"), defaultPage)
	size := parsePositive(r.URL.Query().Get("pageSize"), defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

func parsePositive(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
