package resource

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called for watcher findings.
// kind is "unbound" for a collection file added after startup and
// "removed" for the backing file of a bound resource disappearing.
type EventCallback func(kind, name string)

// Watch observes the data directory until ctx is cancelled. Routes are fixed
// at startup, so files that appear later are only reported, never bound.
func Watch(ctx context.Context, catalog *Catalog, dir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	// reported keeps repeated writes to one unbound file from being logged each time.
	reported := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			base := filepath.Base(ev.Name)
			if !strings.HasSuffix(base, ".json") || strings.HasPrefix(base, ".") {
				continue
			}
			name := strings.TrimSuffix(base, ".json")
			_, bound := catalog.Get(name)

			switch {
			case ev.Op&fsnotify.Create != 0:
				if bound {
					continue
				}
				if _, seen := reported[name]; seen {
					continue
				}
				reported[name] = struct{}{}
				logger.Warn("watcher: resource file added after startup; restart to bind it",
					slog.String("name", name))
				if cb != nil {
					cb("unbound", name)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if !bound {
					delete(reported, name)
					continue
				}
				logger.Warn("watcher: bound resource file removed; it is recreated empty on next access",
					slog.String("name", name))
				if cb != nil {
					cb("removed", name)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
