// Package watcher triggers rebuilds when smali sources or extra files change
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/appbuilder/appbuilder/pkg/logger"
)

// DefaultSettle is how long the tree must stay quiet before a rebuild
const DefaultSettle = 500 * time.Millisecond

// TriggerFunc is called with the sorted set of paths changed since the last
// trigger. Calls never overlap.
type TriggerFunc func(ctx context.Context, changed []string)

// Watcher collects fsnotify events for a set of inputs and coalesces bursts
// into a single trigger
type Watcher struct {
	fs         *fsnotify.Watcher
	logger     logger.Logger
	settle     time.Duration
	mu         sync.RWMutex
	dirs       map[string]bool
	files      map[string]bool
	exclusions []string
	ignore     *IgnoreMatcher
}

// New creates a watcher. A zero settle uses DefaultSettle.
func New(log logger.Logger, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if log == nil {
		log = logger.Discard()
	}
	ignore, err := NewIgnoreMatcher(DefaultIgnores)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		fs:     fw,
		logger: log.WithStep("watch"),
		settle: settle,
		dirs:   make(map[string]bool),
		files:  make(map[string]bool),
		ignore: ignore,
	}, nil
}

// Close stops the underlying fsnotify watcher
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Exclude ignores events below path, typically the build directory
func (w *Watcher) Exclude(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.mu.Lock()
	w.exclusions = append(w.exclusions, abs)
	w.mu.Unlock()
}

// Ignore adds glob patterns for paths that never trigger a rebuild
func (w *Watcher) Ignore(patterns ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignore.Add(patterns...)
}

// Add watches path. Directories are watched recursively; for a file its
// parent directory is watched and events are filtered to the file.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if !info.IsDir() {
		w.mu.Lock()
		w.files[abs] = true
		w.mu.Unlock()
		return w.fs.Add(filepath.Dir(abs))
	}
	return w.addDirectory(abs)
}

func (w *Watcher) addDirectory(dir string) error {
	if w.isExcluded(dir) {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.mu.Lock()
	w.dirs[dir] = true
	w.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if err := w.addDirectory(sub); err != nil {
			w.logger.Warn(fmt.Sprintf("Failed to watch subdirectory %s: %v", sub, err))
		}
	}
	return nil
}

// Run dispatches coalesced changes to trigger until ctx is done
func (w *Watcher) Run(ctx context.Context, trigger TriggerFunc) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectory(event.Name); err != nil {
						w.logger.Warn(fmt.Sprintf("Failed to watch new directory %s: %v", event.Name, err))
					}
				}
			}
			pending[event.Name] = true
			timer.Reset(w.settle)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)

			w.logger.Debug("Inputs changed", logger.WithField("paths", len(changed)))
			trigger(ctx, changed)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(fmt.Sprintf("Watcher error: %v", err))
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	if w.isExcluded(name) {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.files[name] {
		return true
	}
	for dir := range w.dirs {
		if name == dir || strings.HasPrefix(name, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) isExcluded(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, exc := range w.exclusions {
		if path == exc || strings.HasPrefix(path, exc+string(filepath.Separator)) {
			return true
		}
	}
	return w.ignore.Match(path)
}
