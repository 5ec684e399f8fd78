package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   string // "create", "write", "remove"
}

// DefaultDebounce is the quiet period before a batch of events is delivered.
const DefaultDebounce = 200 * time.Millisecond

// suppressWindow is how long a Suppress call hides events for a path.
const suppressWindow = time.Second

// skipDirs are never watched.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".svelte-kit":  true,
}

// Watcher watches a directory tree for file changes using fsnotify.
type Watcher struct {
	fs         *fsnotify.Watcher
	root       string
	extensions []string // suffixes, e.g. ".svelte.d.ts", ".docs.json"
	debounce   time.Duration
	onChange   func(events []Event)
	log        *zap.Logger

	mu         sync.Mutex
	pending    map[string]Event
	timer      *time.Timer
	suppressed map[string]time.Time
}

// New creates a watcher on root and every directory below it. A nil log
// discards output.
func New(root string, extensions []string, debounce time.Duration, onChange func(events []Event), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		fs:         fw,
		root:       root,
		extensions: extensions,
		debounce:   debounce,
		onChange:   onChange,
		log:        log,
		pending:    make(map[string]Event),
		suppressed: make(map[string]time.Time),
	}
	if err := w.addRecursive(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Watch delivers debounced batches to onChange until ctx is done.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.timer != nil {
				w.timer.Stop()
			}
			w.mu.Unlock()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// Suppress hides events for paths for a short window. Callers use it for
// files they are about to write themselves.
func (w *Watcher) Suppress(paths ...string) {
	until := time.Now().Add(suppressWindow)
	w.mu.Lock()
	for _, p := range paths {
		w.suppressed[filepath.Clean(p)] = until
	}
	w.mu.Unlock()
}

// WatchList returns the directories currently being watched.
func (w *Watcher) WatchList() []string {
	list := w.fs.WatchList()
	sort.Strings(list)
	return list
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.log.Warn("failed to watch new directory", zap.String("dir", path), zap.Error(err))
			}
			return
		}
	}

	op := opName(event.Op)
	if op == "" || !w.matches(path) {
		return
	}
	if w.isSuppressed(path) {
		w.log.Debug("ignoring own write", zap.String("file", path))
		return
	}

	w.log.Debug("change detected", zap.String("file", path), zap.String("op", op))
	w.schedule(Event{Path: path, Op: op})
}

// schedule merges event into the pending batch and restarts the debounce timer.
func (w *Watcher) schedule(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[event.Path] = event
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := make([]Event, 0, len(w.pending))
	for _, e := range w.pending {
		batch = append(batch, e)
	}
	w.pending = make(map[string]Event)
	w.mu.Unlock()

	if len(batch) == 0 || w.onChange == nil {
		return
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	w.onChange(batch)
}

func (w *Watcher) isSuppressed(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.suppressed[path]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(w.suppressed, path)
		return false
	}
	return true
}

func (w *Watcher) matches(path string) bool {
	for _, ext := range w.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return errors.Wrapf(err, "watching %s", dir)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return errors.Wrapf(err, "watching %s", path)
		}
		return nil
	})
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return "remove"
	default:
		return ""
	}
}
