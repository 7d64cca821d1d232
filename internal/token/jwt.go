package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/maggiegpt/server/internal/model"
)

// Claims represents JWT claims with token type and user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC. Access and refresh
// tokens are signed with distinct secrets so one tier never validates
// against the other.
type JWT struct {
	accessSecret  string
	refreshSecret string
}

// NewJWT creates a new JWT token manager with the provided tier secrets.
func NewJWT(accessSecret, refreshSecret string) model.TokenManager {
	return &JWT{accessSecret: accessSecret, refreshSecret: refreshSecret}
}

const (
	accessTTL   = 15 * time.Minute
	refreshTTL  = 7 * 24 * time.Hour
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// GenerateAccessToken creates a short-lived access token.
func (j *JWT) GenerateAccessToken(userID uuid.UUID) (string, error) {
	tokenString, err := j.generate(userID, typeAccess, accessTTL, j.accessSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	tokenString, err := j.generate(userID, typeRefresh, refreshTTL, j.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return tokenString, nil
}

func (j *JWT) generate(userID uuid.UUID, tokenType string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})

	return token.SignedString([]byte(secret))
}

// ParseAccessToken validates and extracts the user ID from an access token.
func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	userID, err := j.parse(tokenString, typeAccess, j.accessSecret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return userID, nil
}

// ParseRefreshToken validates and extracts the user ID from a refresh token.
func (j *JWT) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	userID, err := j.parse(tokenString, typeRefresh, j.refreshSecret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse refresh token: %w", err)
	}
	return userID, nil
}

func (j *JWT) parse(tokenString, tokenType, secret string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("token is invalid")
	}
	if claims.TokenType != tokenType {
		return uuid.Nil, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	return claims.UserID, nil
}
