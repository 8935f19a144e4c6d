package auth

import (
	"context"
	"net/http"

	apperrors "github.com/qnxg/yqwork/internal"
	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/internal/transport"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)
	LoadPrincipal(ctx context.Context, userID int64) (*coreUser.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("authentication failed", "username", dto.Username, "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteData(w, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("token refresh failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteData(w, tokens)
}

// Logout revokes the bearer token. A refresh token in the body, if any,
// is revoked along with it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.HandleServiceError(w, apperrors.ErrInvalidToken)
		return
	}

	var dto RefreshTokenDTO
	if r.ContentLength > 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}

	if err := h.Service.Logout(r.Context(), token, dto.RefreshToken); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteData(w, nil)
}

// AuthMiddleware authenticates the bearer token and attaches the caller's
// Principal to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			h.HandleServiceError(w, apperrors.ErrInvalidToken)
			return
		}

		claims, err := h.Service.ValidateAccessToken(r.Context(), token)
		if err != nil {
			h.Logger.Warn("auth middleware: token validation failed", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		principal, err := h.Service.LoadPrincipal(r.Context(), claims.UserID)
		if err != nil {
			h.Logger.Warn("auth middleware: failed to load principal", "user_id", claims.UserID, "error", err)
			h.HandleServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(coreUser.WithPrincipal(r.Context(), principal)))
	})
}
