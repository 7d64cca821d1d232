package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maggiegpt/server/internal/mocks"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/password"
	"github.com/maggiegpt/server/internal/testutil"
	"github.com/maggiegpt/server/internal/token"
)

// memoryUserStore is a map-backed UserStore for walking full flows
// without mock choreography.
type memoryUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[uuid.UUID]model.User)}
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func (s *memoryUserStore) GetByResetToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetToken != "" && u.ResetToken == token {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound
}

func (s *memoryUserStore) Create(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return user, nil
}

func (s *memoryUserStore) Update(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return model.User{}, model.ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func TestAuth_FullLifecycle(t *testing.T) {
	ctx := context.Background()

	userStore := newMemoryUserStore()
	mail := &mocks.MailSender{}
	manager := token.NewJWT("access-secret", "refresh-secret")
	log := testutil.MakeNoopLogger()

	tokenService := NewTokenService(manager, userStore, log)
	auth := NewAuth(userStore, mail, password.NewHasher(), tokenService, "http://localhost:3000", log)

	var lastCode string
	mail.On("SendCode", mock.Anything, "ada@x.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { lastCode = args.String(3) }).
		Return(nil)
	mail.On("SendWelcome", mock.Anything, "ada@x.com", "Ada").Return(nil)

	// Register creates an unverified account and emails a code.
	result, err := auth.Register(ctx, "Ada", "ada@x.com", "longpass1")
	require.NoError(t, err)
	assert.False(t, result.Resent)
	require.Len(t, lastCode, 6)

	// Login before verification is rejected.
	err = auth.Login(ctx, "ada@x.com", "longpass1")
	assert.ErrorIs(t, err, model.ErrEmailNotVerified)

	// Verify with the emailed code; re-verifying is a no-op.
	verify, err := auth.VerifyEmail(ctx, "ada@x.com", lastCode)
	require.NoError(t, err)
	assert.False(t, verify.AlreadyVerified)

	verify, err = auth.VerifyEmail(ctx, "ada@x.com", lastCode)
	require.NoError(t, err)
	assert.True(t, verify.AlreadyVerified)

	// Login now issues a fresh 2FA code but no token.
	verificationCode := lastCode
	require.NoError(t, auth.Login(ctx, "ada@x.com", "longpass1"))
	require.Len(t, lastCode, 6)

	// The old verification code does not pass the 2FA gate unless the
	// two happen to collide.
	if verificationCode != lastCode {
		_, err = auth.VerifyTwoFactor(ctx, "ada@x.com", verificationCode)
		assert.ErrorIs(t, err, model.ErrInvalidCode)
	}

	pair, err := auth.VerifyTwoFactor(ctx, "ada@x.com", lastCode)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The 2FA code is single-use.
	_, err = auth.VerifyTwoFactor(ctx, "ada@x.com", lastCode)
	assert.ErrorIs(t, err, model.ErrInvalidCode)

	// The access token resolves back to the registered profile.
	userID, err := tokenService.GetUserID(ctx, pair.AccessToken)
	require.NoError(t, err)

	name, err := auth.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	// The refresh token mints a new access token for the same user.
	newAccess, err := tokenService.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	refreshedID, err := tokenService.GetUserID(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, refreshedID)

	// A refresh token never passes the access gate.
	_, err = tokenService.GetUserID(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestAuth_PasswordResetLifecycle(t *testing.T) {
	ctx := context.Background()

	userStore := newMemoryUserStore()
	mail := &mocks.MailSender{}
	manager := token.NewJWT("access-secret", "refresh-secret")
	log := testutil.MakeNoopLogger()

	tokenService := NewTokenService(manager, userStore, log)
	auth := NewAuth(userStore, mail, password.NewHasher(), tokenService, "http://localhost:3000", log)

	userID := uuid.New()
	hash, err := password.NewHasher().Hash("longpass1")
	require.NoError(t, err)
	_, err = userStore.Create(ctx, model.User{
		ID:            userID,
		Name:          "Ada",
		Email:         "ada@x.com",
		PasswordHash:  hash,
		EmailVerified: true,
	})
	require.NoError(t, err)

	var resetLink string
	mail.On("SendResetLink", mock.Anything, "ada@x.com", mock.Anything).
		Run(func(args mock.Arguments) { resetLink = args.String(2) }).
		Return(nil)

	require.NoError(t, auth.RequestPasswordReset(ctx, "ada@x.com"))

	const prefix = "http://localhost:3000/reset-password?token="
	require.True(t, len(resetLink) > len(prefix))
	resetToken := resetLink[len(prefix):]

	require.NoError(t, auth.ConfirmPasswordReset(ctx, resetToken, "newlongpass1"))

	// The token is single-use.
	err = auth.ConfirmPasswordReset(ctx, resetToken, "anotherpass1")
	assert.ErrorIs(t, err, model.ErrInvalidResetToken)

	// Old password no longer logs in; the new one reaches the 2FA step.
	mail.On("SendCode", mock.Anything, "ada@x.com", mock.Anything, mock.Anything).Return(nil)

	err = auth.Login(ctx, "ada@x.com", "longpass1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	require.NoError(t, auth.Login(ctx, "ada@x.com", "newlongpass1"))
}
