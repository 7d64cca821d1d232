package model

import "github.com/google/uuid"

// TokenManager generates and validates access/refresh tokens.
// The two tiers are signed with distinct secrets; a token of one tier
// never validates against the other.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
	ParseRefreshToken(token string) (uuid.UUID, error)
}
