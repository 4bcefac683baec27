// Package watch observes a directory for changed hypothesis files so a new
// validation pass can be triggered without restarting the tool.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the rapid write bursts produced while a
// decoding job is still flushing its output file.
const DefaultDebounce = 500 * time.Millisecond

// Event reports a hypothesis file that appeared or changed.
type Event struct {
	Path      string
	Timestamp time.Time
}

// Watcher watches one directory (non-recursive) for files matching a glob
// pattern and emits debounced change events.
type Watcher struct {
	watcher  *fsnotify.Watcher
	events   chan Event
	errors   chan error
	done     chan struct{}
	dir      string
	pattern  string
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// New creates a Watcher over dir for files whose base name matches pattern
// (e.g. "*.jsonl"). An empty pattern matches every file.
func New(dir, pattern string) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		watcher:  fsWatcher,
		events:   make(chan Event, 64),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
		dir:      filepath.Clean(dir),
		pattern:  pattern,
		debounce: DefaultDebounce,
		pending:  make(map[string]*time.Timer),
	}

	go w.loop()

	return w, nil
}

// Events returns the channel of debounced file change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases its resources. Safe to call more
// than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}

// loop converts raw fsnotify events into debounced hypothesis-file events.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel full, drop
			}
		}
	}
}

// handle filters one fsnotify event and schedules its debounced emission.
func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	path := event.Name
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.emit(path)
	})
}

// emit delivers a debounced event unless the watcher has been closed.
func (w *Watcher) emit(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}

	select {
	case w.events <- Event{Path: path, Timestamp: time.Now()}:
	case <-w.done:
	}
}

// matches checks the file's base name against the configured pattern.
func (w *Watcher) matches(path string) bool {
	if w.pattern == "" {
		return true
	}
	matched, err := filepath.Match(w.pattern, filepath.Base(path))
	if err != nil {
		return false
	}
	return matched
}
