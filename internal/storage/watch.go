package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Catalog when its snapshot file is replaced on disk.
type Watcher struct {
	catalog *Catalog
	path    string
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching the directory that holds path. The watch is
// registered before NewWatcher returns.
func NewWatcher(catalog *Catalog, path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{
		catalog: catalog,
		path:    filepath.Clean(path),
		fsw:     fsw,
		logger:  slog.Default(),
	}, nil
}

// Run processes file events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = w.fsw.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if err := w.catalog.Load(w.path); err != nil {
				w.logger.WarnContext(ctx, "catalog reload failed", "path", w.path, "error", err)
				continue
			}
			w.logger.InfoContext(ctx, "catalog reloaded", "path", w.path)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WarnContext(ctx, "catalog watcher error", "error", err)
		}
	}
}
