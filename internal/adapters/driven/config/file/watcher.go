package file

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ocrchat/ocrchat-cli/internal/logger"
)

// Watch reloads the store whenever the config file changes on disk and
// sends one notification per successful reload. The directory is watched
// rather than the file so editors that replace the file are picked up.
// The channel is closed when ctx is cancelled.
func (s *ConfigStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(s.filePath)); err != nil {
		w.Close()
		return nil, err
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !s.handleEvent(ev) {
					continue
				}
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

// handleEvent reloads on writes and creates of the config file.
// It reports whether the in-memory values were refreshed.
func (s *ConfigStore) handleEvent(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(s.filePath) {
		return false
	}
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return false
	}
	if err := s.Load(); err != nil {
		logger.Warn("config reload failed, keeping previous values: %v", err)
		return false
	}
	logger.Debug("config reloaded from %s", s.filePath)
	return true
}
