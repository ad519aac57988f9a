package domain

import "time"

// CredentialSource says where the active token came from.
type CredentialSource string

// Available credential sources.
const (
	CredentialNone   CredentialSource = "none"
	CredentialEnv    CredentialSource = "env"
	CredentialConfig CredentialSource = "config"
)

// TokenInfo describes the stored bearer token without verifying it.
// Opaque tokens carry only Source.
type TokenInfo struct {
	Source    CredentialSource
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that lies before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
