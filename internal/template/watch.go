package template

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/pgdef/pkg/spi"
)

// watchDebounce coalesces bursts of file events, e.g. editors writing a
// temp file and renaming it.
const watchDebounce = 100 * time.Millisecond

// ErrNoTemplatesDir is returned by Watch when the engine only has builtin or
// in-memory templates.
var ErrNoTemplatesDir = errors.New("no templates directory to watch")

// Watch purges the template cache whenever a template file in the
// configured directory changes, then calls onChange with the file name.
// It blocks until ctx is done.
func (e *Engine) Watch(ctx context.Context, onChange func(name string)) error {
	if e.dir == "" {
		return ErrNoTemplatesDir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dirs := []string{e.dir}
	for _, mode := range []spi.Mode{spi.ModeSQL, spi.ModeXML} {
		sub := filepath.Join(e.dir, mode.String())
		if info, err := os.Stat(sub); err == nil && info.IsDir() {
			dirs = append(dirs, sub)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	e.logger.Debug("watching templates", "dirs", dirs)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ext := filepath.Ext(event.Name); ext != ".sql" && ext != ".xml" {
				continue
			}

			name := event.Name
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				e.templatesChanged(ctx, name, onChange)
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("template watcher error", "error", err)
		}
	}
}

// templatesChanged runs after the debounce delay. Stopping the timer does not
// wait for a callback already in flight, so it rechecks ctx.
func (e *Engine) templatesChanged(ctx context.Context, name string, onChange func(name string)) {
	if ctx.Err() != nil {
		return
	}
	e.Purge()
	e.logger.Info("templates changed", "file", filepath.Base(name))
	if onChange != nil {
		onChange(name)
	}
}
