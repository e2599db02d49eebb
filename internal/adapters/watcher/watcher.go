// Package watcher implements the filesystem watch coordinator using
// fsnotify. It observes the tasks, projects, and teams roots, classifies
// qualifying changes, invalidates the dependent caches, and publishes
// logical events to the hub.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/metadata"
	"github.com/matt-grain/claude-code-kanban/internal/domain/events"
	"github.com/matt-grain/claude-code-kanban/internal/domain/ports"
)

// RootKind identifies which watched root a change belongs to.
type RootKind string

const (
	RootTasks    RootKind = "tasks"
	RootProjects RootKind = "projects"
	RootTeams    RootKind = "teams"
)

// MetadataInvalidator is the slice of the metadata resolver the watcher
// needs.
type MetadataInvalidator interface {
	Invalidate()
}

// TeamEvictor is the slice of the team config cache the watcher needs.
type TeamEvictor interface {
	Evict(teamID string)
}

// Config holds the three watched roots. A root that does not exist at
// startup is skipped; it is not watched retroactively.
type Config struct {
	TasksRoot    string
	ProjectsRoot string
	TeamsRoot    string
	DebounceMS   int
}

// Watcher coordinates fsnotify events across the three roots.
type Watcher struct {
	roots    map[RootKind]string
	hub      ports.EventHub
	metadata MetadataInvalidator
	teams    TeamEvictor

	mu        sync.RWMutex
	watcher   *fsnotify.Watcher
	running   bool
	cancel    context.CancelFunc
	debouncer *Debouncer
}

// New creates a watch coordinator. Only roots that exist are recorded.
func New(cfg Config, hub ports.EventHub, md MetadataInvalidator, teams TeamEvictor) *Watcher {
	roots := make(map[RootKind]string)
	for kind, root := range map[RootKind]string{
		RootTasks:    cfg.TasksRoot,
		RootProjects: cfg.ProjectsRoot,
		RootTeams:    cfg.TeamsRoot,
	} {
		if root == "" {
			continue
		}
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			roots[kind] = root
		} else {
			log.Debug().Str("root", root).Str("kind", string(kind)).Msg("root absent, not watching")
		}
	}

	w := &Watcher{
		roots:    roots,
		hub:      hub,
		metadata: md,
		teams:    teams,
	}
	debounce := time.Duration(cfg.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	w.debouncer = NewDebouncer(debounce, w.handleDebounced)
	return w
}

// Start begins watching every existing root.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	for kind, root := range w.roots {
		if err := w.addRootWatches(root); err != nil {
			log.Warn().Err(err).Str("root", root).Msg("failed to watch root")
			continue
		}
		log.Info().Str("root", root).Str("kind", string(kind)).Msg("watching root")
	}

	go w.eventLoop(watchCtx)
	return nil
}

// Stop terminates file watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false

	if w.cancel != nil {
		w.cancel()
	}
	w.debouncer.Stop()

	if w.watcher != nil {
		err := w.watcher.Close()
		w.watcher = nil
		log.Info().Msg("file watcher stopped")
		return err
	}
	return nil
}

// IsRunning returns true if the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// addRootWatches watches a root and its immediate child directories.
// The known directory shape is two levels deep; deeper structures are a
// deliberate scope limit, not observed.
func (w *Watcher) addRootWatches(root string) error {
	if err := w.watcher.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := w.watcher.Add(filepath.Join(root, entry.Name())); err != nil {
			log.Warn().Err(err).Str("dir", entry.Name()).Msg("failed to add watch")
		}
	}
	return nil
}

// eventLoop handles fsnotify events.
func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
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
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// handleEvent filters a raw fsnotify event and queues qualifying
// changes for debouncing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	kind, root, ok := w.classifyRoot(event.Name)
	if !ok {
		return
	}

	var change events.FileChangeKind
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		change = events.FileChangeCreated
		// A new immediate child directory (session, project, or team)
		// must be watched before files land inside it.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if filepath.Dir(event.Name) == root {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		change = events.FileChangeModified
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		change = events.FileChangeDeleted
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		change = events.FileChangeDeleted
	default:
		return // chmod and friends
	}

	if !qualifies(kind, event.Name) {
		return
	}

	w.debouncer.Add(event.Name, change)
}

// handleDebounced is called after the debounce window expires for a path.
func (w *Watcher) handleDebounced(path string, change events.FileChangeKind) {
	kind, root, ok := w.classifyRoot(path)
	if !ok {
		return
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return
	}

	switch kind {
	case RootTasks:
		// Task reads are always live re-scans; nothing to invalidate.
		sessionID := firstPathElement(rel)
		if sessionID == "" {
			return
		}
		w.hub.Publish(events.NewTaskUpdateEvent(sessionID, change, filepath.Base(path)))
		log.Debug().
			Str("session_id", sessionID).
			Str("file", filepath.Base(path)).
			Str("change", string(change)).
			Msg("task file changed")

	case RootProjects:
		// Coarse-grained: any qualifying change under the projects root
		// invalidates the whole mapping.
		if w.metadata != nil {
			w.metadata.Invalidate()
		}
		w.hub.Publish(events.NewMetadataUpdateEvent())
		log.Debug().Str("file", filepath.Base(path)).Msg("project metadata changed")

	case RootTeams:
		teamID := firstPathElement(rel)
		if teamID == "" {
			return
		}
		if w.teams != nil {
			w.teams.Evict(teamID)
		}
		w.hub.Publish(events.NewTeamUpdateEvent(teamID))
		log.Debug().Str("team_id", teamID).Msg("team config changed")
	}
}

// classifyRoot finds which watched root a path falls under.
func (w *Watcher) classifyRoot(path string) (RootKind, string, bool) {
	for kind, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return kind, root, true
		}
	}
	return "", "", false
}

// qualifies filters changes by the file pattern each root cares about.
// Directory-only events and unrelated file types are ignored.
func qualifies(kind RootKind, path string) bool {
	base := filepath.Base(path)
	switch kind {
	case RootTasks:
		return strings.HasSuffix(base, ".json")
	case RootProjects:
		// Session logs plus the sidecar index; both feed the resolver.
		return strings.HasSuffix(base, ".jsonl") || base == metadata.SidecarFileName
	case RootTeams:
		return base == "config.json"
	}
	return false
}

// firstPathElement returns the leading component of a relative path,
// i.e. the immediate child directory name under a root.
func firstPathElement(rel string) string {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return "" // file directly under the root, no owning directory
	}
	return parts[0]
}
