package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/password"
)

const (
	// codeTTL bounds both email verification and login 2FA codes.
	codeTTL = 5 * time.Minute
	// resendCooldown throttles repeated verification sends per user.
	resendCooldown = time.Minute
	// resetTTL bounds password reset tokens.
	resetTTL = time.Hour

	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Auth drives the credential state machine: registration, email
// verification, two-factor login, password reset and OAuth sign-in.
type Auth struct {
	userStore   model.UserStore
	mail        model.MailSender
	hasher      *password.Hasher
	tokens      *TokenService
	frontendURL string
	logger      *logger.Logger
}

// NewAuth creates the auth service.
func NewAuth(
	userStore model.UserStore,
	mail model.MailSender,
	hasher *password.Hasher,
	tokens *TokenService,
	frontendURL string,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:   userStore,
		mail:        mail,
		hasher:      hasher,
		tokens:      tokens,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// RegisterResult reports whether registration created a new account or
// re-sent a code to an existing unverified one.
type RegisterResult struct {
	Resent bool
}

// Register validates the input and either creates a new unverified user
// or, when an unverified account already exists, regenerates and resends
// its verification code. A verified account with the same email fails
// with ErrEmailTaken. The user row is persisted only after the code email
// is delivered, so a failed send never leaves an unreachable account.
func (a *Auth) Register(ctx context.Context, name, email, pass string) (RegisterResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" || email == "" || pass == "" {
		return RegisterResult{}, model.ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return RegisterResult{}, model.ErrInvalidEmail
	}
	if len(pass) < minPasswordLength {
		return RegisterResult{}, model.ErrWeakPassword
	}

	existing, err := a.userStore.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err == nil {
		if existing.EmailVerified {
			a.logger.Info("Auth service: registration rejected, email taken", "email", email)
			return RegisterResult{}, model.ErrEmailTaken
		}
		if err := a.resendVerification(ctx, existing); err != nil {
			return RegisterResult{}, err
		}
		return RegisterResult{Resent: true}, nil
	}

	hash, err := a.hasher.Hash(pass)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := password.GenerateCode()
	if err != nil {
		return RegisterResult{}, err
	}

	now := time.Now()
	user := model.User{
		ID:                        uuid.New(),
		Name:                      name,
		Email:                     email,
		PasswordHash:              hash,
		EmailVerified:             false,
		VerificationCode:          code,
		VerificationCodeExpiresAt: now.Add(codeTTL),
		LastVerificationSentAt:    now,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := a.mail.SendCode(ctx, user.Email, "Verify your email", code); err != nil {
		a.logger.Error("Auth service: failed to send verification code",
			"email", email,
			"error", err.Error())
		return RegisterResult{}, fmt.Errorf("failed to send verification code: %w", err)
	}

	if _, err := a.userStore.Create(ctx, user); err != nil {
		return RegisterResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registered", "email", email)

	return RegisterResult{}, nil
}

func (a *Auth) resendVerification(ctx context.Context, user model.User) error {
	if time.Since(user.LastVerificationSentAt) < resendCooldown {
		return model.ErrResendCooldown
	}

	code, err := password.GenerateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	user.VerificationCode = code
	user.VerificationCodeExpiresAt = now.Add(codeTTL)
	user.LastVerificationSentAt = now
	user.UpdatedAt = now

	if err := a.mail.SendCode(ctx, user.Email, "Verify your email", code); err != nil {
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: verification code resent", "email", user.Email)

	return nil
}

// VerifyResult reports whether the email was already verified before the
// call; verification is idempotent on success.
type VerifyResult struct {
	AlreadyVerified bool
}

// VerifyEmail checks the submitted code against the stored one. On
// success it marks the account verified, clears the code, and sends a
// best-effort welcome email.
func (a *Auth) VerifyEmail(ctx context.Context, email, code string) (VerifyResult, error) {
	email = normalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return VerifyResult{}, model.ErrNotFound
		}
		return VerifyResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.EmailVerified {
		return VerifyResult{AlreadyVerified: true}, nil
	}
	if user.VerificationCode == "" || user.VerificationCode != code {
		return VerifyResult{}, model.ErrInvalidCode
	}
	if time.Now().After(user.VerificationCodeExpiresAt) {
		return VerifyResult{}, model.ErrCodeExpired
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	user.UpdatedAt = time.Now()

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return VerifyResult{}, fmt.Errorf("failed to update user: %w", err)
	}

	// Welcome mail is fire-and-forget: delivery failure must not undo a
	// completed verification.
	if err := a.mail.SendWelcome(ctx, user.Email, user.Name); err != nil {
		a.logger.Error("Auth service: failed to send welcome email",
			"email", user.Email,
			"error", err.Error())
	}

	a.logger.Info("Auth service: email verified", "email", email)

	return VerifyResult{}, nil
}

// Login checks credentials and, when they hold for a verified account,
// issues a fresh 2FA code by email. Login never returns tokens directly;
// the caller must complete VerifyTwoFactor. Absent users and wrong
// passwords fail with the same error to avoid account enumeration.
func (a *Auth) Login(ctx context.Context, email, pass string) error {
	email = normalizeEmail(email)

	if email == "" || pass == "" {
		return model.ErrMissingFields
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidCredentials
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.PasswordHash == "" || !a.hasher.Compare(user.PasswordHash, pass) {
		return model.ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return model.ErrEmailNotVerified
	}

	code, err := password.GenerateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	user.TwoFactorCode = code
	user.TwoFactorCodeExpiresAt = now.Add(codeTTL)
	user.UpdatedAt = now

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if err := a.mail.SendCode(ctx, user.Email, "Your MaggieGPT Login Code", code); err != nil {
		a.logger.Error("Auth service: failed to send 2FA code",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to send 2FA code: %w", err)
	}

	a.logger.Info("Auth service: 2FA code issued", "email", email)

	return nil
}

// VerifyTwoFactor completes a login: it checks the submitted 2FA code,
// clears it, and issues an access+refresh token pair.
func (a *Auth) VerifyTwoFactor(ctx context.Context, email, code string) (TokenPair, error) {
	email = normalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return TokenPair{}, model.ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.TwoFactorCode == "" || user.TwoFactorCode != code {
		return TokenPair{}, model.ErrInvalidCode
	}
	if time.Now().After(user.TwoFactorCodeExpiresAt) {
		return TokenPair{}, model.ErrCodeExpired
	}

	now := time.Now()
	user.TwoFactorCode = ""
	user.TwoFactorCodeExpiresAt = now
	user.UpdatedAt = now

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return TokenPair{}, fmt.Errorf("failed to update user: %w", err)
	}

	pair, err := a.tokens.Issue(ctx, user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: login completed", "email", email)

	return pair, nil
}

// RequestPasswordReset issues a single-use reset token with a one-hour
// expiry and emails a reset link. An unknown email fails with
// ErrNotFound; this leaks account existence and is kept deliberately to
// match observable behavior.
func (a *Auth) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := password.GenerateResetToken()
	if err != nil {
		return err
	}

	now := time.Now()
	user.ResetToken = token
	user.ResetTokenExpiresAt = now.Add(resetTTL)
	user.UpdatedAt = now

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(a.frontendURL, "/"), token)
	if err := a.mail.SendResetLink(ctx, user.Email, link); err != nil {
		a.logger.Error("Auth service: failed to send reset link",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to send reset link: %w", err)
	}

	a.logger.Info("Auth service: password reset requested", "email", email)

	return nil
}

// ConfirmPasswordReset consumes a reset token: it replaces the password
// hash and clears the token so it cannot be used twice. Other sessions
// are not invalidated.
func (a *Auth) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return model.ErrMissingFields
	}
	if len(newPassword) < minPasswordLength {
		return model.ErrWeakPassword
	}

	user, err := a.userStore.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if time.Now().After(user.ResetTokenExpiresAt) {
		return model.ErrInvalidResetToken
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetTokenExpiresAt = time.Time{}
	user.UpdatedAt = now

	if _, err := a.userStore.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	a.logger.Info("Auth service: password reset completed", "email", user.Email)

	return nil
}

// OAuthSignIn maps a verified provider profile to a local user,
// auto-creating and auto-verifying on first sight, and issues a token
// pair directly. Federated logins skip the 2FA step: the identity
// provider already attested the email.
func (a *Auth) OAuthSignIn(ctx context.Context, name, email, googleID string) (TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || googleID == "" {
		return TokenPair{}, model.ErrMissingFields
	}

	user, err := a.userStore.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, model.ErrNotFound):
		now := time.Now()
		user = model.User{
			ID:            uuid.New(),
			Name:          name,
			Email:         email,
			GoogleID:      googleID,
			EmailVerified: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if user, err = a.userStore.Create(ctx, user); err != nil {
			return TokenPair{}, fmt.Errorf("failed to create user: %w", err)
		}

		if err := a.mail.SendWelcome(ctx, user.Email, user.Name); err != nil {
			a.logger.Error("Auth service: failed to send welcome email",
				"email", user.Email,
				"error", err.Error())
		}
	case err != nil:
		return TokenPair{}, fmt.Errorf("failed to get user by email: %w", err)
	default:
		if user.GoogleID == "" || !user.EmailVerified {
			user.GoogleID = googleID
			user.EmailVerified = true
			user.UpdatedAt = time.Now()
			if user, err = a.userStore.Update(ctx, user); err != nil {
				return TokenPair{}, fmt.Errorf("failed to update user: %w", err)
			}
		}
	}

	pair, err := a.tokens.Issue(ctx, user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	a.logger.Info("Auth service: oauth sign-in completed", "email", email)

	return pair, nil
}

// Profile returns the display name for the given user id.
func (a *Auth) Profile(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := a.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("failed to get user by id: %w", err)
	}
	return user.Name, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
