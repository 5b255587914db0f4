// internal/watch/watch.go
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vdiff/internal/diff"
	"vdiff/internal/normalize"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler receives a freshly computed section after every settled change.
type Handler func(*diff.FileDiffSection)

type Options struct {
	// Normalize, when set, canonicalizes both files before diffing.
	Normalize *normalize.Options
	// Debounce is how long to wait for a burst of writes to settle.
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher re-diffs two files whenever either of them changes on disk.
type Watcher struct {
	oldPath, newPath string
	engine           *diff.Engine
	opts             Options
	watcher          *fsnotify.Watcher
}

func New(oldPath, newPath string, engine *diff.Engine, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	oldAbs, err := filepath.Abs(oldPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", oldPath, err)
	}
	newAbs, err := filepath.Abs(newPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", newPath, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	// Watch the directories: editors often replace files by renaming over
	// them, which drops a watch placed on the file itself.
	for _, dir := range uniqueDirs(oldAbs, newAbs) {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	return &Watcher{
		oldPath: oldAbs,
		newPath: newAbs,
		engine:  engine,
		opts:    opts,
		watcher: watcher,
	}, nil
}

func uniqueDirs(paths ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Compute reads both files and diffs them. A missing file counts as an
// absent document.
func (w *Watcher) Compute() (*diff.FileDiffSection, error) {
	oldDoc, err := w.read(w.oldPath)
	if err != nil {
		return nil, err
	}
	newDoc, err := w.read(w.newPath)
	if err != nil {
		return nil, err
	}
	return w.engine.Section(filepath.Base(w.newPath), oldDoc, newDoc)
}

func (w *Watcher) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}

	if w.opts.Normalize != nil {
		out, err := normalize.Normalize(data, *w.opts.Normalize)
		if err != nil {
			// Half-written YAML is common mid-edit; show the raw text instead.
			w.opts.Logger.Debug("normalize failed, diffing raw text",
				zap.String("path", path), zap.Error(err))
			return data, nil
		}
		data = out
	}
	return data, nil
}

// Run emits the current diff, then a new one after every change to either
// file, until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	emit := func() {
		section, err := w.Compute()
		if err != nil {
			w.opts.Logger.Error("computing diff", zap.Error(err))
			return
		}
		handle(section)
	}
	emit()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.opts.Logger.Debug("file changed",
				zap.String("path", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.opts.Debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Error("watcher error", zap.Error(err))
		case <-timer.C:
			emit()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Name != w.oldPath && event.Name != w.newPath {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// Close cleans up resources
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
