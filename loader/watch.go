package loader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reapplies a manifest whenever it is written or recreated, until
// ctx is done. The manifests' directories are watched so editors that
// replace files on save are followed.
func (l *Loader) Watch(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("at least one manifest path is required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create manifest watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving manifest path %s: %w", path, err)
		}
		watched[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}

	l.logger.Info("watching signature manifests", zap.Strings("paths", paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := watched[abs]; !ok {
				continue
			}
			l.reload(abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("manifest watcher error", zap.Error(err))
		}
	}
}

func (l *Loader) reload(path string) {
	applied, err := l.loadFile(path)
	if err != nil {
		l.logger.Warn("failed to reload signature manifest",
			zap.String("path", path),
			zap.Int("applied", applied),
			zap.Error(err),
		)
	} else {
		l.logger.Info("reloaded signature manifest",
			zap.String("path", path),
			zap.Int("applied", applied),
		)
	}
	if l.onReload != nil {
		l.onReload(path, applied, err)
	}
}
