package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByResetToken(ctx context.Context, token string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

// User represents a stored user with credential and verification state.
// Email is normalized to lower case and is the sole natural key.
// PasswordHash is empty for federation-only accounts; GoogleID is empty
// for password-only accounts. At least one of the two is always set.
type User struct {
	ID                        uuid.UUID
	Name                      string
	Email                     string
	PasswordHash              string
	GoogleID                  string
	EmailVerified             bool
	VerificationCode          string
	VerificationCodeExpiresAt time.Time
	LastVerificationSentAt    time.Time
	TwoFactorCode             string
	TwoFactorCodeExpiresAt    time.Time
	ResetToken                string
	ResetTokenExpiresAt       time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}
