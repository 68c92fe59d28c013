// Package watch reports changes to the entries of a single directory.
//
// It backs `fileslice watch`: the cursor lists only the direct entries of its
// position, so a Watcher never recurses. Bursts of events are coalesced into
// one Change so that a listing is recomputed once per burst.
package watch

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/harrison/fileslice/internal/hostfs"
)

// Op represents the type of entry operation
type Op int

const (
	// Created indicates a new entry appeared
	Created Op = iota
	// Written indicates an entry was written to
	Written
	// Removed indicates an entry was removed or renamed away
	Removed
)

// String returns a human-readable representation of the operation
func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Written:
		return "written"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is a coalesced burst of events in the watched directory.
type Change struct {
	Dir       string
	Paths     []string // sorted, de-duplicated
	Ops       map[string]Op
	Timestamp time.Time
	// Gone is set when the watched directory itself was removed or renamed
	// away. No further changes follow.
	Gone bool
}

// DefaultDebounceDelay is the quiet period after which a burst is delivered.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher watches one directory for entries matching any of its patterns.
type Watcher struct {
	watcher  *fsnotify.Watcher
	changes  chan Change
	errors   chan error
	done     chan struct{}
	dir      string
	patterns []string

	mu            sync.Mutex
	debounceDelay time.Duration
	timer         *time.Timer
	pending       map[string]Op
	gone          bool
	closed        bool
}

// New starts watching dir. An empty pattern list matches every entry.
func New(dir string, patterns []string) (*Watcher, error) {
	dir = filepath.Clean(dir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:       watcher,
		changes:       make(chan Change, 16),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		dir:           dir,
		patterns:      append([]string(nil), patterns...),
		debounceDelay: DefaultDebounceDelay,
		pending:       make(map[string]Op),
	}

	go w.processEvents()

	return w, nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name == w.dir {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.record(event.Name, Removed, true)
		}
		return
	}
	if filepath.Dir(event.Name) != w.dir || !w.matches(filepath.Base(event.Name)) {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = Created
	case event.Has(fsnotify.Write):
		op = Written
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Removed
	default:
		// chmod
		return
	}
	w.record(event.Name, op, false)
}

func (w *Watcher) record(path string, op Op, gone bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[path] = op
	w.gone = w.gone || gone
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.flush)
}

func (w *Watcher) matches(name string) bool {
	if len(w.patterns) == 0 {
		return true
	}
	for _, p := range w.patterns {
		if ok, err := hostfs.MatchName(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	ops, gone := w.pending, w.gone
	w.pending = make(map[string]Op)
	w.gone = false
	w.timer = nil
	w.mu.Unlock()

	paths := make([]string, 0, len(ops))
	for p := range ops {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	select {
	case w.changes <- Change{Dir: w.dir, Paths: paths, Ops: ops, Timestamp: time.Now(), Gone: gone}:
	case <-w.done:
	}
}

// Changes returns the channel of coalesced changes
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// SetDebounceDelay sets the quiet period. Call before events arrive.
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = nil
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
