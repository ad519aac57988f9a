// Package auth supplies the bearer token used by the HTTP and websocket
// adapters. Tokens come from OCRCHAT_TOKEN or the auth.token config key.
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// EnvToken overrides the stored token.
const EnvToken = "OCRCHAT_TOKEN"

// Ensure TokenProvider implements the interfaces.
var (
	_ driven.CredentialProvider = (*TokenProvider)(nil)
	_ driving.AuthService       = (*TokenProvider)(nil)
)

// TokenProvider reads the bearer token on every call so a token rotated
// in the config file is picked up by the next request or reconnect.
type TokenProvider struct {
	store  driven.ConfigStore
	getenv func(string) string
	now    func() time.Time
}

// NewTokenProvider creates a provider backed by the config store.
func NewTokenProvider(store driven.ConfigStore) *TokenProvider {
	return &TokenProvider{
		store:  store,
		getenv: os.Getenv,
		now:    time.Now,
	}
}

// Token returns the active token. JWTs whose exp claim has passed are
// rejected locally with domain.ErrAuthExpired; opaque tokens pass through.
func (p *TokenProvider) Token(_ context.Context) (string, error) {
	raw, source := p.lookup()
	if source == domain.CredentialNone {
		return "", domain.ErrAuthRequired
	}
	info, err := Inspect(raw)
	if err == nil && info.Expired(p.now()) {
		return "", fmt.Errorf("%w (expired %s)", domain.ErrAuthExpired, info.ExpiresAt.Format(time.RFC3339))
	}
	return raw, nil
}

// Login stores a token in the config file.
func (p *TokenProvider) Login(token string) (*domain.TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: token is empty", domain.ErrInvalidInput)
	}

	info, err := Inspect(token)
	if err != nil {
		info = &domain.TokenInfo{}
	}
	if info.Expired(p.now()) {
		return nil, fmt.Errorf("%w (expired %s)", domain.ErrAuthExpired, info.ExpiresAt.Format(time.RFC3339))
	}

	if err := p.store.Set(domain.KeyAuthToken, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	info.Source = domain.CredentialConfig
	return info, nil
}

// Logout removes the stored token. An OCRCHAT_TOKEN override is untouched.
func (p *TokenProvider) Logout() error {
	if err := p.store.Unset(domain.KeyAuthToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Status describes the active token.
func (p *TokenProvider) Status(_ context.Context) (*domain.TokenInfo, error) {
	raw, source := p.lookup()
	if source == domain.CredentialNone {
		return nil, domain.ErrAuthRequired
	}
	info, err := Inspect(raw)
	if err != nil {
		info = &domain.TokenInfo{}
	}
	info.Source = source
	return info, nil
}

func (p *TokenProvider) lookup() (string, domain.CredentialSource) {
	if v := strings.TrimSpace(p.getenv(EnvToken)); v != "" {
		return v, domain.CredentialEnv
	}
	if v := strings.TrimSpace(p.store.GetString(domain.KeyAuthToken)); v != "" {
		return v, domain.CredentialConfig
	}
	return "", domain.CredentialNone
}

// Inspect reads the claims of a JWT without verifying its signature.
func Inspect(raw string) (*domain.TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: not a JWT: %v", domain.ErrInvalidInput, err)
	}

	info := &domain.TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
