// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cvedix/edge-ai-api/internal/log"
)

// Watch reloads the store whenever the backing file changes on disk.
// Events are debounced because editors and atomic-rename writers emit
// bursts. Blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	logger := log.WithComponent("config.watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: renameio replaces the file inode, which
	// would silently detach a file-level watch.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	const debounce = 250 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("config watcher error")
		case <-fire:
			if err := s.Reload(); err != nil {
				logger.Warn().Err(err).Msg("config reload failed")
			} else {
				logger.Info().Str(log.FieldPath, s.path).Msg("config reloaded")
			}
		}
	}
}
