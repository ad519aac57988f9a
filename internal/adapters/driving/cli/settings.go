package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage client settings",
	Long: `View and change client settings stored in ~/.ocrchat/config.toml.

Settings use dot notation and map onto TOML tables:
  api.url                   REST API base URL
  api.requests_per_second   REST request throttle
  ws.url                    Notification channel URL
  ws.heartbeat_seconds      Ping interval (0 disables pings)
  chat.ask_timeout_seconds  How long to wait for an answer
  reconnect.base_delay_ms   First reconnect delay
  reconnect.max_delay_ms    Reconnect delay cap
  cache.enabled             Keep a local copy of viewed documents

OCRCHAT_API_URL and OCRCHAT_WS_URL override the stored URLs.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset [key]",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		cmd.Printf("Warning: %v\n\n", err)
	}

	cmd.Println("Settings:")
	for _, key := range settingsService.Keys() {
		cmd.Printf("  %-26s %s\n", key, settingValue(settings, key))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if !knownSetting(args[0]) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println(settingValue(settings, args[0]))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to unset %s: %w", args[0], err)
	}

	defaults := settingsService.GetDefaults()
	cmd.Printf("%s reset to default (%s)\n", args[0], settingValue(defaults, args[0]))
	return nil
}

func knownSetting(key string) bool {
	for _, k := range settingsService.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// settingValue renders a setting in the unit its key is stored in.
func settingValue(s domain.ClientSettings, key string) string {
	switch key {
	case domain.KeyAPIURL:
		return s.APIURL
	case domain.KeyAPIRequestsPerSec:
		return strconv.Itoa(s.RequestsPerSecond)
	case domain.KeyWSURL:
		return s.WSURL
	case domain.KeyWSHeartbeatSeconds:
		return strconv.Itoa(int(s.HeartbeatInterval / time.Second))
	case domain.KeyAskTimeoutSeconds:
		return strconv.Itoa(int(s.AskTimeout / time.Second))
	case domain.KeyReconnectBaseMS:
		return strconv.Itoa(int(s.ReconnectBaseDelay / time.Millisecond))
	case domain.KeyReconnectMaxMS:
		return strconv.Itoa(int(s.ReconnectMaxDelay / time.Millisecond))
	case domain.KeyCacheEnabled:
		return strconv.FormatBool(s.CacheEnabled)
	default:
		return ""
	}
}
