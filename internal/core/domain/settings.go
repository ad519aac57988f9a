package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Default client settings.
const (
	DefaultAPIURL             = "http://localhost:3001/api"
	DefaultWSURL              = "ws://localhost:3001"
	DefaultAskTimeout         = 60 * time.Second
	DefaultReconnectBaseDelay = 500 * time.Millisecond
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultHeartbeatInterval  = 25 * time.Second
	DefaultRequestsPerSecond  = 5
)

// Configuration keys in the TOML config file (dot notation).
const (
	KeyAPIURL             = "api.url"
	KeyAPIRequestsPerSec  = "api.requests_per_second"
	KeyWSURL              = "ws.url"
	KeyWSHeartbeatSeconds = "ws.heartbeat_seconds"
	KeyAuthToken          = "auth.token"
	KeyAskTimeoutSeconds  = "chat.ask_timeout_seconds"
	KeyReconnectBaseMS    = "reconnect.base_delay_ms"
	KeyReconnectMaxMS     = "reconnect.max_delay_ms"
	KeyCacheEnabled       = "cache.enabled"
)

// ClientSettings holds the typed client configuration.
type ClientSettings struct {
	// APIURL is the base URL of the document REST API.
	APIURL string

	// WSURL is the URL of the notification channel.
	WSURL string

	// AskTimeout bounds the wait for an llm:answer.
	AskTimeout time.Duration

	// ReconnectBaseDelay is the first reconnect backoff delay.
	ReconnectBaseDelay time.Duration

	// ReconnectMaxDelay caps the reconnect backoff delay.
	ReconnectMaxDelay time.Duration

	// HeartbeatInterval is the websocket ping interval. Zero disables pings.
	HeartbeatInterval time.Duration

	// RequestsPerSecond throttles REST calls.
	RequestsPerSecond int

	// CacheEnabled turns on the local snapshot cache.
	CacheEnabled bool
}

// DefaultClientSettings returns settings with all defaults applied.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		APIURL:             DefaultAPIURL,
		WSURL:              DefaultWSURL,
		AskTimeout:         DefaultAskTimeout,
		ReconnectBaseDelay: DefaultReconnectBaseDelay,
		ReconnectMaxDelay:  DefaultReconnectMaxDelay,
		HeartbeatInterval:  DefaultHeartbeatInterval,
		RequestsPerSecond:  DefaultRequestsPerSecond,
		CacheEnabled:       true,
	}
}

// Validate checks that the settings are usable.
func (s *ClientSettings) Validate() error {
	if err := validateURL(s.APIURL, "http", "https"); err != nil {
		return fmt.Errorf("%w: api url: %w", ErrInvalidInput, err)
	}
	if err := validateURL(s.WSURL, "ws", "wss", "http", "https"); err != nil {
		return fmt.Errorf("%w: ws url: %w", ErrInvalidInput, err)
	}
	if s.AskTimeout <= 0 {
		return fmt.Errorf("%w: ask timeout must be positive", ErrInvalidInput)
	}
	if s.ReconnectBaseDelay <= 0 || s.ReconnectMaxDelay < s.ReconnectBaseDelay {
		return fmt.Errorf("%w: reconnect delays must satisfy 0 < base <= max", ErrInvalidInput)
	}
	if s.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests per second must be positive", ErrInvalidInput)
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
