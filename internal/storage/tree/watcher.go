package tree

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/maruel/mdtree/internal/storage"
)

// Watcher invalidates an Index when anything below the document root changes
// outside of the Mutator, e.g. an editor saving a file.
type Watcher struct {
	w          *fsnotify.Watcher
	root       string
	exclusions map[string]bool
	index      *Index
}

// NewWatcher watches root and every folder below it that is neither hidden
// nor excluded by cfg.
func NewWatcher(root string, cfg *storage.TreeConfig, index *Index) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &Watcher{w: w, root: root, exclusions: make(map[string]bool, len(cfg.Exclusions)), index: index}
	for _, e := range cfg.Exclusions {
		dw.exclusions[e] = true
	}
	if err := dw.addTree(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return dw, nil
}

// Run processes events until ctx is canceled, then closes the watcher.
func (dw *Watcher) Run(ctx context.Context) {
	defer func() { _ = dw.w.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-dw.w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if dw.skip(filepath.Base(event.Name)) {
				continue
			}
			slog.DebugContext(ctx, "Document tree changed", "op", event.Op.String(), "path", event.Name)
			dw.index.Invalidate()
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := dw.addTree(event.Name); err != nil {
						slog.WarnContext(ctx, "Failed to watch new folder", "path", event.Name, "err", err)
					}
				}
			}
		case err, ok := <-dw.w.Errors:
			if !ok {
				return
			}
			slog.WarnContext(ctx, "Error watching document tree", "err", err)
		}
	}
}

func (dw *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dw.root && dw.skip(d.Name()) {
			return filepath.SkipDir
		}
		if err := dw.w.Add(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

// skip reports whether name is hidden or an excluded folder name.
func (dw *Watcher) skip(name string) bool {
	return strings.HasPrefix(name, ".") || dw.exclusions[name]
}
