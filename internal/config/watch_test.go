package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/tgjournal/internal/config"
	"github.com/edgard/tgjournal/internal/logger"
)

func TestWatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	write := func(level string) {
		t.Helper()
		content := "telegram:\n  token: \"123:abc\"\njournal:\n  save_directory: " + dir + "\nlog:\n  level: " + level + "\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("info")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, logger.Discard(), func(cfg *config.Config) {
			changes <- cfg.Log.Level
		})
	}()

	// Rewrite until the watcher, which starts asynchronously, sees an edit.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for got := ""; got != "debug"; {
		select {
		case got = <-changes:
		case <-tick.C:
			write("debug")
		case err := <-done:
			t.Fatalf("Watch() returned early: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for the reload")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not stop after cancellation")
	}
}
