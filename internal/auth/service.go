package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/user"
)

// CredentialStore looks up the password hash for a login name.
type CredentialStore interface {
	GetCredentials(ctx context.Context, username string) (userID int64, passwordHash string, err error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

type PermissionResolver interface {
	ForUser(ctx context.Context, userID int64) (permission.Set, error)
}

// Service is the main auth service with dependencies
type Service struct {
	credentials CredentialStore
	users       UserDirectory
	permissions PermissionResolver
	tokens      TokenGenerator
	revocations RevocationStore
	hasher      BcryptHasher
	logger      *slog.Logger
}

func NewService(
	credentials CredentialStore,
	users UserDirectory,
	permissions PermissionResolver,
	tokens TokenGenerator,
	revocations RevocationStore,
	hasher BcryptHasher,
	logger *slog.Logger,
) *Service {
	return &Service{
		credentials: credentials,
		users:       users,
		permissions: permissions,
		tokens:      tokens,
		revocations: revocations,
		hasher:      hasher,
		logger:      logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := validation.Struct(dto); err != nil {
		return AuthTokens{}, err
	}

	userID, storedHash, err := s.credentials.GetCredentials(ctx, dto.Username)
	if err != nil {
		return AuthTokens{}, err
	}
	if !s.hasher.Compare(storedHash, dto.Password) {
		s.logger.Warn("login rejected: bad password", "user_id", userID)
		return AuthTokens{}, apperrors.ErrInvalidCredentials
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return AuthTokens{}, err
	}
	if u.IsRetired() {
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	tokens, err := s.issue(userID)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.users.TouchLastLogin(ctx, userID); err != nil {
		s.logger.Warn("failed to record last login", "user_id", userID, "error", err)
	}
	s.logger.Info("user logged in", "user_id", userID)
	return tokens, nil
}

// RefreshTokens rotates a refresh token: the presented token is revoked
// and a fresh pair is issued.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if err := validation.Struct(RefreshTokenDTO{RefreshToken: refreshToken}); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return AuthTokens{}, apperrors.ErrInvalidToken
		}
		return AuthTokens{}, err
	}
	if u.IsRetired() {
		return AuthTokens{}, apperrors.ErrUserInactive
	}

	if err := s.revoke(ctx, claims); err != nil {
		return AuthTokens{}, err
	}
	return s.issue(claims.UserID)
}

// Logout revokes the access token and, when given, the refresh token.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}

	if refreshToken != "" {
		refreshClaims, err := s.tokens.ValidateToken(refreshToken, TokenTypeRefresh)
		if err == nil && refreshClaims.UserID == claims.UserID {
			if err := s.revoke(ctx, refreshClaims); err != nil {
				return err
			}
		}
	}

	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(tokenString, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// LoadPrincipal resolves the caller and the effective permission set.
// Retired users are rejected even while their tokens are still valid.
func (s *Service) LoadPrincipal(ctx context.Context, userID int64) (*coreUser.Principal, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	if u.IsRetired() {
		return nil, apperrors.ErrUserInactive
	}

	set, err := s.permissions.ForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions: %w", err)
	}

	return &coreUser.Principal{
		ID:           u.ID,
		Name:         u.Name,
		StuID:        u.StuID,
		DepartmentID: u.DepartmentID,
		Permissions:  set,
	}, nil
}

func (s *Service) issue(userID int64) (AuthTokens, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, _, err := s.tokens.GenerateRefreshToken(userID)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) ensureNotRevoked(ctx context.Context, claims *Claims) error {
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

func (s *Service) revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
