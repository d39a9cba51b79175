package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/appboardguru/boardguru/pkg/logging"
)

// Watch reloads the config file at path whenever it is written and swaps
// the global configuration. onChange, if set, receives every new valid
// configuration. Invalid files are logged and ignored. Watch blocks until
// ctx is done.
//
// The parent directory is watched rather than the file itself so editors
// that replace the file through a rename are still observed.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log := logging.With("config")
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := LoadFile(path)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("ignoring invalid configuration change")
				continue
			}

			Set(cfg)
			log.Info().Str("path", path).Msg("configuration reloaded")
			if onChange != nil {
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
