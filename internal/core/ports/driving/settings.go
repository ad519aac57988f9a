package driving

import "github.com/ocrchat/ocrchat-cli/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get returns the effective settings: config file values over
	// defaults, with environment overrides applied last.
	Get() (domain.ClientSettings, error)

	// Set validates and persists a single key. The value is parsed
	// according to the key's type.
	Set(key, value string) error

	// Unset removes a key so its default applies again.
	Unset(key string) error

	// Keys lists every supported key.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings
}
