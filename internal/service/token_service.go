package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
)

// TokenPair is the credential pair returned by a completed login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and refreshes bearer tokens. Refresh tokens are
// stateless: validity is carried entirely in the signed claims, and a
// refresh rotates only the access token.
type TokenService struct {
	manager   model.TokenManager
	userStore model.UserStore
	logger    *logger.Logger
}

// NewTokenService creates the token service.
func NewTokenService(manager model.TokenManager, userStore model.UserStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, userStore: userStore, logger: logger}
}

// Issue returns a fresh access+refresh pair for the user.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := s.manager.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates the refresh token and returns a new access token.
// Any signature, expiry or format problem fails with ErrInvalidToken; a
// valid token for a user that no longer exists fails with
// ErrInvalidCredentials.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.manager.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("Token service: refresh token rejected", "error", err.Error())
		return "", model.ErrInvalidToken
	}

	if _, err := s.userStore.GetByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user by id: %w", err)
	}

	access, err := s.manager.GenerateAccessToken(userID)
	if err != nil {
		return "", fmt.Errorf("issue new access: %w", err)
	}

	return access, nil
}

// GetUserID resolves the user id embedded in an access token. It is the
// request gate used by the authentication middleware.
func (s *TokenService) GetUserID(ctx context.Context, accessToken string) (uuid.UUID, error) {
	userID, err := s.manager.ParseAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, model.ErrInvalidToken
	}
	return userID, nil
}
