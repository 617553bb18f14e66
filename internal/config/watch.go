package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Watch reloads the configuration file whenever it changes and passes every
// valid result to onChange. Invalid edits are logged and ignored. The
// parent directory is watched so editors that replace the file are seen.
// Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, log *slog.Logger, onChange func(*Config)) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "config_watcher")

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	log.Info("Watching configuration file", "path", abs)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) {
				debounce = time.After(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Config watcher error", "error", err)

		case <-debounce:
			debounce = nil
			cfg, err := LoadConfig(abs)
			if err != nil {
				log.Error("Ignoring invalid configuration change", "error", err)
				continue
			}
			log.Info("Configuration reloaded", "path", abs)
			onChange(cfg)
		}
	}
}
