package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maggiegpt/server/internal/mocks"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/testutil"
)

func newTokenFixture(t *testing.T) (*mocks.TokenManager, *mocks.UserStore, *TokenService) {
	t.Helper()
	manager := &mocks.TokenManager{}
	userStore := &mocks.UserStore{}
	return manager, userStore, NewTokenService(manager, userStore, testutil.MakeNoopLogger())
}

func TestTokenService_Issue(t *testing.T) {
	ctx := context.Background()
	manager, _, service := newTokenFixture(t)

	userID := uuid.New()
	manager.On("GenerateAccessToken", userID).Return("access", nil)
	manager.On("GenerateRefreshToken", userID).Return("refresh", nil)

	pair, err := service.Issue(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
}

func TestTokenService_Issue_AccessFailure(t *testing.T) {
	ctx := context.Background()
	manager, _, service := newTokenFixture(t)

	userID := uuid.New()
	manager.On("GenerateAccessToken", userID).Return("", assert.AnError)

	_, err := service.Issue(ctx, userID)
	require.Error(t, err)
	manager.AssertNotCalled(t, "GenerateRefreshToken")
}

func TestTokenService_Refresh(t *testing.T) {
	ctx := context.Background()
	manager, userStore, service := newTokenFixture(t)

	userID := uuid.New()
	manager.On("ParseRefreshToken", "refresh").Return(userID, nil)
	userStore.On("GetByID", mock.Anything, userID).Return(model.User{ID: userID}, nil)
	manager.On("GenerateAccessToken", userID).Return("new-access", nil)

	access, err := service.Refresh(ctx, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", access)
}

func TestTokenService_Refresh_InvalidToken(t *testing.T) {
	ctx := context.Background()
	manager, _, service := newTokenFixture(t)

	manager.On("ParseRefreshToken", "garbage").Return(uuid.Nil, assert.AnError)

	_, err := service.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
	manager.AssertNotCalled(t, "GenerateAccessToken")
}

func TestTokenService_Refresh_UserGone(t *testing.T) {
	ctx := context.Background()
	manager, userStore, service := newTokenFixture(t)

	userID := uuid.New()
	manager.On("ParseRefreshToken", "refresh").Return(userID, nil)
	userStore.On("GetByID", mock.Anything, userID).Return(model.User{}, model.ErrNotFound)

	_, err := service.Refresh(ctx, "refresh")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestTokenService_GetUserID(t *testing.T) {
	ctx := context.Background()
	manager, _, service := newTokenFixture(t)

	userID := uuid.New()
	manager.On("ParseAccessToken", "access").Return(userID, nil)
	manager.On("ParseAccessToken", "garbage").Return(uuid.Nil, assert.AnError)

	got, err := service.GetUserID(ctx, "access")
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = service.GetUserID(ctx, "garbage")
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}
