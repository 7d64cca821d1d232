package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/logger"
	"github.com/maggiegpt/server/internal/model"
	"github.com/maggiegpt/server/internal/oauth"
	"github.com/maggiegpt/server/internal/service"
)

// AuthService defines the credential lifecycle operations.
type AuthService interface {
	Register(ctx context.Context, name, email, pass string) (service.RegisterResult, error)
	VerifyEmail(ctx context.Context, email, code string) (service.VerifyResult, error)
	Login(ctx context.Context, email, pass string) error
	VerifyTwoFactor(ctx context.Context, email, code string) (service.TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	OAuthSignIn(ctx context.Context, name, email, googleID string) (service.TokenPair, error)
	Profile(ctx context.Context, userID uuid.UUID) (string, error)
}

// TokenService defines access token reissue.
type TokenService interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// GoogleOAuth defines the provider round-trip for federated sign-in.
type GoogleOAuth interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, expectedNonce string) (oauth.Profile, error)
}

// Auth handles HTTP endpoints for registration, verification, login,
// token refresh, password reset and Google sign-in.
type Auth struct {
	authService    AuthService
	tokenService   TokenService
	google         GoogleOAuth
	contextManager model.ContextManager
	frontendURL    string
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	tokenService TokenService,
	google GoogleOAuth,
	contextManager model.ContextManager,
	frontendURL string,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		tokenService:   tokenService,
		google:         google,
		contextManager: contextManager,
		frontendURL:    frontendURL,
		logger:         logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account and sends a verification code.
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	result, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Auth handler: registration failed", "error", err.Error())
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	message := "Registration successful. Verification code sent to your email."
	if result.Resent {
		message = "Account exists but not verified. Sent a new code to your email."
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":              message,
		"requiresVerification": true,
	})
}

type codeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyRegister confirms the emailed verification code.
func (h *Auth) VerifyRegister(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}

	result, err := h.authService.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		// An unknown email answers 400 here, not 404.
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid email")
			return
		}
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	message := "Email verified successfully"
	if result.AlreadyVerified {
		message = "Email already verified"
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and sends a 2FA code; no token is issued
// until the code is verified.
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if err := h.authService.Login(r.Context(), req.Email, req.Password); err != nil {
		respondError(w, h.logger, err, messageOverrides{
			missingFields: "Email and password are required",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "2FA code sent to your email",
		"is2FA":   true,
	})
}

// VerifyTwoFactor completes a login and returns the token pair.
func (h *Auth) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 2FA code")
		return
	}

	pair, err := h.authService.VerifyTwoFactor(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{
			invalidCode: "Invalid 2FA code",
			codeExpired: "2FA code expired",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":      "2FA verified successfully",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	accessToken, err := h.tokenService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset emails a single-use reset link.
func (h *Auth) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "No account with that email")
			return
		}
		respondError(w, h.logger, err, messageOverrides{missingFields: "Email is required"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password reset link sent to your email"})
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ConfirmPasswordReset consumes the reset token and replaces the
// password.
func (h *Auth) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := h.authService.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

// Profile returns the authenticated user's display name.
func (h *Auth) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.contextManager.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, model.ErrMissingToken, messageOverrides{})
		return
	}

	name, err := h.authService.Profile(r.Context(), userID)
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{notFound: "User not found"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"name": name})
}

const (
	oauthStateCookie = "oauth_state"
	oauthNonceCookie = "oauth_nonce"
)

// GoogleRedirect starts the Google sign-in round-trip. State and nonce
// are pinned in short-lived cookies and checked on callback.
func (h *Auth) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := oauth.RandomState()
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}
	nonce, err := oauth.RandomState()
	if err != nil {
		respondError(w, h.logger, err, messageOverrides{})
		return
	}

	setOAuthCookie(w, r, oauthStateCookie, state)
	setOAuthCookie(w, r, oauthNonceCookie, nonce)

	http.Redirect(w, r, h.google.AuthCodeURL(state, nonce), http.StatusTemporaryRedirect)
}

// GoogleCallback finishes the round-trip: it verifies state and nonce,
// exchanges the code, signs the user in, and redirects to the frontend
// chat page with the access token.
func (h *Auth) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	var nonce string
	if nonceCookie, err := r.Cookie(oauthNonceCookie); err == nil {
		nonce = nonceCookie.Value
	}

	clearOAuthCookie(w, r, oauthStateCookie)
	clearOAuthCookie(w, r, oauthNonceCookie)

	profile, err := h.google.Exchange(r.Context(), r.URL.Query().Get("code"), nonce)
	if err != nil {
		h.logger.Error("Auth handler: google exchange failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Google Auth Failed")
		return
	}

	pair, err := h.authService.OAuthSignIn(r.Context(), profile.Name, profile.Email, profile.Subject)
	if err != nil {
		h.logger.Error("Auth handler: oauth sign-in failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Google Auth Failed")
		return
	}

	redirect := fmt.Sprintf("%s/chat?token=%s", strings.TrimRight(h.frontendURL, "/"), pair.AccessToken)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

func setOAuthCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearOAuthCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
