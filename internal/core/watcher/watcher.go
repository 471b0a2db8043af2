package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"hydralsp/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
)

// Change is one debounced file event.
type Change struct {
	Path    string
	Kind    FileKind
	Removed bool
}

// Watcher reports debounced batches of changes to YAML documents and Python
// sources under the watched roots.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	filter     atomic.Pointer[Filter]
	debounce   time.Duration
	onChange   func([]Change)
	callbackMu sync.Mutex

	pending   map[string]Change
	pendingMu sync.Mutex
	timer     *time.Timer

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

func NewWatcher(debounce time.Duration, filter *Filter, onChange func([]Change)) (*Watcher, error) {
	if onChange == nil || filter == nil {
		return nil, os.ErrInvalid
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
		pending:   make(map[string]Change),
		done:      make(chan struct{}),
	}
	w.filter.Store(filter)
	return w, nil
}

// SetFilter replaces the exclusion filter. Directories already watched stay
// watched; their events are filtered with the new rules.
func (w *Watcher) SetFilter(filter *Filter) {
	if filter != nil {
		w.filter.Store(filter)
	}
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers every non-excluded directory under paths and starts
// delivering events.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if err := w.watchRecursive(path); err != nil {
			return err
		}
	}

	w.started.Store(true)
	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && w.filter.Load().ExcludeDir(path) {
				return filepath.SkipDir
			}
			return w.fsWatcher.Add(path)
		}

		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.filter.Load().ExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if w.filter.Load().ExcludeFile(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.scheduleChange(event.Name, true)
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.scheduleChange(event.Name, false)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string, removed bool) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = Change{Path: path, Kind: Classify(path), Removed: removed}

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	changes := make([]Change, 0, len(w.pending))
	for _, c := range w.pending {
		changes = append(changes, c)
	}
	w.pending = make(map[string]Change)
	w.pendingMu.Unlock()

	if len(changes) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(changes)
}

// Close stops event delivery and waits for the event loop to exit. A batch
// whose debounce timer already fired may still be delivered.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.pendingMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pendingMu.Unlock()
		err = w.fsWatcher.Close()
		if w.started.Load() {
			<-w.done
		}
	})
	return err
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}
		if info.IsDir() {
			if path != root && w.filter.Load().ExcludeDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.filter.Load().ExcludeFile(path) {
			return nil
		}
		w.scheduleChange(path, false)
		return nil
	})
}
