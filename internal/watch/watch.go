// Package watch reports batches of file changes below the source
// directories and build file of a project. It drives continuous builds.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/structra/assignment/internal/ctxlog"
)

// DefaultDebounce is how long the tree must be quiet before a batch is
// delivered.
const DefaultDebounce = 200 * time.Millisecond

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("watcher closed")

// Watcher collects change events into debounced batches.
type Watcher struct {
	debounce time.Duration
	fs       *fsnotify.Watcher
	batches  chan []string
	done     chan struct{}

	mu sync.Mutex
	// files restricts events in a directory to the named files. Directories
	// watched as trees have no entry.
	files map[string]map[string]bool
	trees map[string]bool
}

// New starts a watcher. A debounce of zero means DefaultDebounce.
func New(ctx context.Context, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		debounce: debounce,
		fs:       fw,
		batches:  make(chan []string, 1),
		done:     make(chan struct{}),
		files:    make(map[string]map[string]bool),
		trees:    make(map[string]bool),
	}
	go w.loop(ctx)
	return w, nil
}

// Add watches path. A directory is watched with all its subdirectories; a
// file is watched on its own. Paths that do not exist are ignored.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.addFile(path)
	}
	return w.addTree(path)
}

func (w *Watcher) addFile(path string) error {
	dir := filepath.Dir(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.trees[dir] {
		return nil
	}
	if w.files[dir] == nil {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
		w.files[dir] = make(map[string]bool)
	}
	w.files[dir][filepath.Base(path)] = true
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.trees[p] {
			return nil
		}
		if w.files[p] == nil {
			if err := w.fs.Add(p); err != nil {
				return err
			}
		}
		delete(w.files, p)
		w.trees[p] = true
		return nil
	})
}

// relevant reports whether an event on name should trigger a batch.
func (w *Watcher) relevant(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(name)
	if w.trees[dir] || w.trees[name] {
		return true
	}
	return w.files[dir][filepath.Base(name)]
}

// Wait blocks until the next batch of changed paths.
func (w *Watcher) Wait(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case batch, ok := <-w.batches:
		if !ok {
			return nil, ErrClosed
		}
		return batch, nil
	}
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.batches)
	logger := ctxlog.FromContext(ctx)

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.relevant(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						logger.Warn("could not watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			if !w.relevant(event.Name) {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)
			select {
			case w.batches <- batch:
			case prev := <-w.batches:
				// The previous batch was never collected; merge into it.
				w.batches <- mergeSorted(prev, batch)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func mergeSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, p := range append(a, b...) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
