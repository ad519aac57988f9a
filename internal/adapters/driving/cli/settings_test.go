package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

func TestSettingValue(t *testing.T) {
	s := domain.ClientSettings{
		APIURL:             "https://ocr.example.com/api",
		WSURL:              "wss://ocr.example.com",
		AskTimeout:         90 * time.Second,
		ReconnectBaseDelay: 250 * time.Millisecond,
		ReconnectMaxDelay:  10 * time.Second,
		HeartbeatInterval:  15 * time.Second,
		RequestsPerSecond:  3,
		CacheEnabled:       false,
	}

	tests := []struct {
		key      string
		expected string
	}{
		{domain.KeyAPIURL, "https://ocr.example.com/api"},
		{domain.KeyAPIRequestsPerSec, "3"},
		{domain.KeyWSURL, "wss://ocr.example.com"},
		{domain.KeyWSHeartbeatSeconds, "15"},
		{domain.KeyAskTimeoutSeconds, "90"},
		{domain.KeyReconnectBaseMS, "250"},
		{domain.KeyReconnectMaxMS, "10000"},
		{domain.KeyCacheEnabled, "false"},
		{"unknown.key", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, settingValue(s, tt.key))
		})
	}
}

func TestConfigCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(configCmd.Commands()))
	for _, cmd := range configCmd.Commands() {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"list", "get", "set", "unset"}, names)
}

func TestConfigListCmd_ShowsEverySetting(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Settings:")
	for _, key := range currentServices.settings.Keys() {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, domain.DefaultAPIURL)
}

func TestConfigCmd_DefaultsToList(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config")

	require.NoError(t, err)
	assert.Contains(t, out, "Settings:")
}

func TestConfigListCmd_LoadWarning(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	currentServices.settings.err = errors.New("bad toml")

	out, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: bad toml")
}

func TestConfigGetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "get", domain.KeyWSURL)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultWSURL+"\n", out)
}

func TestConfigGetCmd_UnknownKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "config", "get", "nope")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigSetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "set", domain.KeyAskTimeoutSeconds, "120")

	require.NoError(t, err)
	assert.Equal(t, "120", currentServices.settings.set[domain.KeyAskTimeoutSeconds])
	assert.Contains(t, out, "chat.ask_timeout_seconds = 120")
}

func TestConfigSetCmd_Error(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	currentServices.settings.err = domain.ErrInvalidInput

	_, err := execute(t, "config", "set", domain.KeyAPIURL, "ftp://x")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "failed to set api.url")
}

func TestConfigUnsetCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "config", "unset", domain.KeyReconnectMaxMS)

	require.NoError(t, err)
	assert.Equal(t, []string{domain.KeyReconnectMaxMS}, currentServices.settings.unset)
	assert.Contains(t, out, "reset to default (30000)")
}

func TestConfigCmd_ServiceNotConfigured(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	_, err := execute(t, "config", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}
