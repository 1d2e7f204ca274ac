package controller

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settingsDebounce coalesces the burst of events an editor produces on save
const settingsDebounce = 200 * time.Millisecond

// WatchSettings reloads the settings file whenever it changes on disk and
// passes the result to onChange. It blocks until ctx is cancelled.
// The parent directory is watched so that editors which replace the file still trigger a reload.
func WatchSettings(ctx context.Context, path string, logger *slog.Logger, onChange func(*Settings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating settings watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			debounce.Reset(settingsDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("settings watcher error", "error", err)

		case <-debounce.C:
			settings, err := LoadSettings(path)
			if err != nil {
				logger.Warn("ignoring unreadable settings file", "path", path, "error", err)
				continue
			}
			logger.Info("settings reloaded", "path", path)
			onChange(settings)
		}
	}
}
