package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Environment overrides.
const (
	EnvAPIURL = "OCRCHAT_API_URL"
	EnvWSURL  = "OCRCHAT_WS_URL"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
)

// settingKeys maps every supported key onto its value type.
var settingKeys = map[string]keyKind{
	domain.KeyAPIURL:             kindString,
	domain.KeyAPIRequestsPerSec:  kindInt,
	domain.KeyWSURL:              kindString,
	domain.KeyWSHeartbeatSeconds: kindInt,
	domain.KeyAskTimeoutSeconds:  kindInt,
	domain.KeyReconnectBaseMS:    kindInt,
	domain.KeyReconnectMaxMS:     kindInt,
	domain.KeyCacheEnabled:       kindBool,
}

// SettingsService manages client settings stored in a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get returns the effective settings.
func (s *SettingsService) Get() (domain.ClientSettings, error) {
	d := domain.DefaultClientSettings()

	settings := domain.ClientSettings{
		APIURL:             s.getString(domain.KeyAPIURL, d.APIURL),
		WSURL:              s.getString(domain.KeyWSURL, d.WSURL),
		AskTimeout:         s.getDuration(domain.KeyAskTimeoutSeconds, time.Second, d.AskTimeout),
		ReconnectBaseDelay: s.getDuration(domain.KeyReconnectBaseMS, time.Millisecond, d.ReconnectBaseDelay),
		ReconnectMaxDelay:  s.getDuration(domain.KeyReconnectMaxMS, time.Millisecond, d.ReconnectMaxDelay),
		HeartbeatInterval:  s.getDuration(domain.KeyWSHeartbeatSeconds, time.Second, d.HeartbeatInterval),
		RequestsPerSecond:  s.getInt(domain.KeyAPIRequestsPerSec, d.RequestsPerSecond),
		CacheEnabled:       s.getBool(domain.KeyCacheEnabled, d.CacheEnabled),
	}

	if v := s.getenv(EnvAPIURL); v != "" {
		settings.APIURL = v
	}
	if v := s.getenv(EnvWSURL); v != "" {
		settings.WSURL = v
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Set validates and persists a single key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var typed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	default:
		typed = value
	}

	prev, hadPrev := s.configStore.Get(key)
	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if _, err := s.Get(); err != nil {
		if hadPrev {
			_ = s.configStore.Set(key, prev)
		} else {
			_ = s.configStore.Unset(key)
		}
		return err
	}
	return nil
}

// Unset removes a key so its default applies again.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingKeys[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return s.configStore.Unset(key)
}

// Keys lists every supported key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * unit
}
