package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches, and by
	// services for missing users, sessions and ledgers.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned by ChatStore.Update when the stored
	// ledger version no longer matches the loaded one.
	ErrVersionConflict = errors.New("chat ledger version conflict")

	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrResendCooldown     = errors.New("verification resend cooldown active")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid or expired token")

	ErrGuestLimitReached = errors.New("guest limit reached")
)
