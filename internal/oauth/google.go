// Package oauth maps external identity-provider profiles to local users.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Profile is the verified identity returned by the provider.
type Profile struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Config holds Google OAuth client parameters.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Google exchanges authorization codes for verified Google profiles.
type Google struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewGoogle discovers the Google OIDC endpoints and builds the adapter.
func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	return &Google{oauthConfig: oauthCfg, verifier: verifier}, nil
}

// AuthCodeURL returns the provider consent URL for the given state and nonce.
func (g *Google) AuthCodeURL(state, nonce string) string {
	return g.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
}

// Exchange trades the authorization code for tokens, verifies the ID token
// and its nonce, and returns the attested profile. The profile email must
// be verified by the provider.
func (g *Google) Exchange(ctx context.Context, code, expectedNonce string) (Profile, error) {
	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Profile{}, fmt.Errorf("no id_token in provider response")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to verify id_token: %w", err)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Nonce         string `json:"nonce"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Profile{}, fmt.Errorf("failed to parse id_token claims: %w", err)
	}

	if claims.Sub == "" || claims.Email == "" || !claims.EmailVerified {
		return Profile{}, fmt.Errorf("provider account is not usable: unverified email")
	}
	if claims.Nonce == "" || claims.Nonce != expectedNonce {
		return Profile{}, fmt.Errorf("nonce mismatch")
	}

	return Profile{
		Subject:       claims.Sub,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// RandomState returns a URL-safe random string for state/nonce values.
func RandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
