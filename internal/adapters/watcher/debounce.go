package watcher

import (
	"sync"
	"time"

	"github.com/matt-grain/claude-code-kanban/internal/domain/events"
)

// DebouncedEvent represents a debounced file change event.
type DebouncedEvent struct {
	Path   string
	Change events.FileChangeKind
	Timer  *time.Timer
}

// Debouncer coalesces rapid filesystem events for the same path.
type Debouncer struct {
	window   time.Duration
	callback func(path string, change events.FileChangeKind)

	mu      sync.Mutex
	pending map[string]*DebouncedEvent
	stopped bool
}

// NewDebouncer creates a new debouncer with the given window and callback.
func NewDebouncer(window time.Duration, callback func(path string, change events.FileChangeKind)) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
		pending:  make(map[string]*DebouncedEvent),
	}
}

// Add queues an event for debouncing. A pending event for the same path
// has its timer reset and its change type merged.
func (d *Debouncer) Add(path string, change events.FileChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if existing, ok := d.pending[path]; ok {
		existing.Timer.Stop()
		existing.Change = mergeChanges(existing.Change, change)
		existing.Timer = time.AfterFunc(d.window, func() {
			d.fire(path)
		})
		return
	}

	d.pending[path] = &DebouncedEvent{
		Path:   path,
		Change: change,
		Timer: time.AfterFunc(d.window, func() {
			d.fire(path)
		}),
	}
}

// fire executes the callback for a path.
func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	event, ok := d.pending[path]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && d.callback != nil {
		d.callback(event.Path, event.Change)
	}
}

// Stop stops all pending timers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, event := range d.pending {
		event.Timer.Stop()
	}
	d.pending = make(map[string]*DebouncedEvent)
}

// mergeChanges combines two change kinds, preferring the more
// significant one: delete beats everything, create beats modify.
func mergeChanges(existing, next events.FileChangeKind) events.FileChangeKind {
	if next == events.FileChangeDeleted {
		return events.FileChangeDeleted
	}
	if existing == events.FileChangeCreated {
		return events.FileChangeCreated
	}
	return next
}
