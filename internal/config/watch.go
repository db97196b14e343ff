package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of events an editor save produces.
const debounceDelay = 100 * time.Millisecond

// Watch reloads the config at path whenever it changes and calls onChange
// with the result (the error is non-nil when the new file does not load).
// The parent directory is watched because editors often replace the file
// instead of writing it in place. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log *slog.Logger, onChange func(Config, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	debounce := time.NewTimer(0)
	<-debounce.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(debounceDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "err", err)
		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed", "path", path, "err", err)
			} else {
				log.Info("config reloaded", "path", path)
			}
			onChange(cfg, err)
		}
	}
}
