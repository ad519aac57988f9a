package driving

import (
	"context"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

// AuthService manages the bearer token used by both transports.
// Tokens are issued elsewhere; the client only stores them.
type AuthService interface {
	// Login stores a token and returns what could be read from it.
	Login(token string) (*domain.TokenInfo, error)

	// Logout removes the stored token.
	Logout() error

	// Status describes the active token. Returns an error wrapping
	// domain.ErrAuth when none is configured.
	Status(ctx context.Context) (*domain.TokenInfo, error)
}
