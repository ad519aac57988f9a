// Command ocrchat tracks document OCR and answers questions about the
// extracted text.
package main

import (
	"fmt"
	"os"

	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/api"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/auth"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/config/file"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/realtime"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/storage/memory"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driven/storage/sqlite"
	"github.com/ocrchat/ocrchat-cli/internal/adapters/driving/cli"
	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
	"github.com/ocrchat/ocrchat-cli/internal/core/ports/driven"
	"github.com/ocrchat/ocrchat-cli/internal/core/services"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		settings = domain.DefaultClientSettings()
	}

	tokens := auth.NewTokenProvider(configStore)

	client := api.New(api.Config{
		BaseURL:           settings.APIURL,
		RequestsPerSecond: float64(settings.RequestsPerSecond),
	}, tokens)

	channels := realtime.NewFactory(realtime.Config{
		URL:               settings.WSURL,
		HeartbeatInterval: settings.HeartbeatInterval,
	}, tokens)

	var snapshots driven.SnapshotStore
	if settings.CacheEnabled {
		store, err := sqlite.NewStore("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: local cache unavailable, keeping snapshots in memory: %v\n", err)
			snapshots = memory.NewSnapshotStore()
		} else {
			defer store.Close()
			snapshots = store.SnapshotStore()
		}
	}

	cli.SetServices(cli.Services{
		Documents: services.NewDocumentService(client, snapshots),
		Sessions:  services.NewSessionFactory(client, channels, snapshots, services.SessionConfigFromSettings(settings)),
		Settings:  settingsService,
		Auth:      tokens,
		Watcher:   configStore,
	})
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
