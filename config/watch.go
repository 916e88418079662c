package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with a freshly loaded configuration every time the file at
// path is written or created. Load errors are passed to
// fn with a nil config; the previous configuration stays in effect for the
// caller to keep using.
//
// Watch observes the parent directory so that editors which save by
// replacing the file are seen. It blocks until ctx is done and returns
// ctx.Err(), or an error if the watcher cannot be set up.
func Watch(ctx context.Context, path string, fn func(*Config, error)) error {
	path = filepath.Clean(path)
	if _, err := FormatOf(path); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				cfg, err := Load(path)
				fn(cfg, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fn(nil, fmt.Errorf("config: watch: %w", err))
		}
	}
}
