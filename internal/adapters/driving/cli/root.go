// Package cli implements the ocrchat command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driving"
	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// verbose enables debug output on stderr.
var verbose bool

// Services used by the commands. Set by the composition root.
var (
	documentService driving.DocumentService
	sessionFactory  driving.SessionFactory
	settingsService driving.SettingsService
	authService     driving.AuthService
	configWatcher   ConfigWatcher
)

// ConfigWatcher reloads configuration from disk while a command runs.
type ConfigWatcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Services bundles the driving ports the commands depend on.
type Services struct {
	Documents driving.DocumentService
	Sessions  driving.SessionFactory
	Settings  driving.SettingsService
	Auth      driving.AuthService
	Watcher   ConfigWatcher
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	documentService = s.Documents
	sessionFactory = s.Sessions
	settingsService = s.Settings
	authService = s.Auth
	configWatcher = s.Watcher
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "ocrchat",
	Short: "Track document OCR and chat about the extracted text",
	Long: `ocrchat uploads documents to the OCR service, follows their processing
live over the notification channel, and answers questions about the
extracted text once processing completes.

Run 'ocrchat auth login' first to store your access token.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output to stderr")
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if errors.Is(err, domain.ErrAuth) {
		rootCmd.PrintErrln("Run 'ocrchat auth login' to store a valid token.")
	}
	return err
}

// watchConfig reloads the config file in the background until ctx ends.
// Failure to watch is logged and otherwise ignored.
func watchConfig(ctx context.Context) {
	if configWatcher == nil {
		return
	}
	changes, err := configWatcher.Watch(ctx)
	if err != nil {
		logger.Warn("config watch disabled: %v", err)
		return
	}
	go func() {
		for range changes {
			logger.Info("configuration reloaded")
		}
	}()
}
