package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/taskstore"
	"github.com/matt-grain/claude-code-kanban/internal/domain"
	"github.com/matt-grain/claude-code-kanban/internal/pathutil"
)

// logFileExt is the suffix of the append-only session logs. These files
// are foreign: read-only from this system's perspective.
const logFileExt = ".jsonl"

// DefaultTTL is the freshness window of the resolved mapping.
const DefaultTTL = 10 * time.Second

// SessionEntry is the resolved display metadata for one session.
type SessionEntry struct {
	SessionID   string
	CustomName  string // sidecar rename, owned by this system
	CustomTitle string // writer-assigned title from the log head
	Slug        string
	Description string // sidecar description
	Summary     string // first user message, fallback description
	Project     string
	GitBranch   string
	ProjectDir  string // directory holding the session's log and sidecar
	FromTeam    bool   // entry synthesized from a team config, no log match
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName resolves the name precedence: an explicit sidecar rename
// wins over the writer's custom title, which wins over the slug. Empty
// means the caller should show the raw session id.
func (e *SessionEntry) DisplayName() string {
	if e.CustomName != "" {
		return e.CustomName
	}
	if e.CustomTitle != "" {
		return e.CustomTitle
	}
	return e.Slug
}

// TeamLoader is the slice of the team config cache the resolver needs
// for its fallback pass.
type TeamLoader interface {
	Load(teamID string) (*domain.TeamConfig, bool)
}

// Resolver maintains the session-id → metadata mapping with a
// freshness window. A Resolve call within the window returns the cached
// mapping with no disk I/O; after expiry the mapping is rebuilt from
// scratch and replaced atomically.
type Resolver struct {
	projectsRoot string
	tasksRoot    string
	ttl          time.Duration
	teams        TeamLoader

	mu        sync.RWMutex
	entries   map[string]*SessionEntry
	fetchedAt time.Time
}

// NewResolver creates a resolver over the given roots. A zero ttl means
// DefaultTTL.
func NewResolver(projectsRoot, tasksRoot string, teams TeamLoader, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Resolver{
		projectsRoot: projectsRoot,
		tasksRoot:    tasksRoot,
		ttl:          ttl,
		teams:        teams,
	}
}

// Resolve returns the session metadata mapping, rebuilding it first if
// the freshness window has lapsed. The returned map must be treated as
// read-only; it is shared between callers until the next rebuild.
func (r *Resolver) Resolve() map[string]*SessionEntry {
	r.mu.RLock()
	if r.entries != nil && time.Since(r.fetchedAt) < r.ttl {
		entries := r.entries
		r.mu.RUnlock()
		return entries
	}
	r.mu.RUnlock()

	entries := r.rebuild()

	r.mu.Lock()
	r.entries = entries
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	return entries
}

// Invalidate expires the freshness clock so the next Resolve call
// rebuilds without waiting out the window.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.fetchedAt = time.Time{}
	r.mu.Unlock()
}

// Lookup returns the entry for one session from the (possibly
// refreshed) mapping.
func (r *Resolver) Lookup(sessionID string) (*SessionEntry, bool) {
	entry, ok := r.Resolve()[sessionID]
	return entry, ok
}

// rebuild scans every project directory and folds the three sources
// together. A directory that disappears mid-scan or an unparseable
// sidecar degrades that one source to absent, never aborts the rebuild.
func (r *Resolver) rebuild() map[string]*SessionEntry {
	start := time.Now()
	entries := make(map[string]*SessionEntry)

	projectDirs, err := os.ReadDir(r.projectsRoot)
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("root", r.projectsRoot).Msg("failed to read projects root")
	}

	for _, dir := range projectDirs {
		if !dir.IsDir() {
			continue
		}
		projectDir := filepath.Join(r.projectsRoot, dir.Name())
		r.scanProjectDir(projectDir, entries)

		// Sidecar overrides are additive: they own customName and
		// description, and never clobber log-derived fields.
		for sessionID, override := range readSidecar(projectDir) {
			entry, ok := entries[sessionID]
			if !ok {
				entry = &SessionEntry{SessionID: sessionID, ProjectDir: projectDir}
				entries[sessionID] = entry
			}
			if override.CustomName != "" {
				entry.CustomName = override.CustomName
			}
			if override.Description != "" {
				entry.Description = override.Description
			}
		}
	}

	r.foldTeamFallbacks(entries)

	log.Debug().
		Int("sessions", len(entries)).
		Dur("elapsed", time.Since(start)).
		Msg("session metadata rebuilt")

	return entries
}

// scanProjectDir extracts one entry per session log in a project
// directory.
func (r *Resolver) scanProjectDir(projectDir string, entries map[string]*SessionEntry) {
	files, err := os.ReadDir(projectDir)
	if err != nil {
		return
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), logFileExt) {
			continue
		}
		sessionID := strings.TrimSuffix(f.Name(), logFileExt)
		logPath := filepath.Join(projectDir, f.Name())

		head, err := scanLogHead(logPath)
		if err != nil {
			log.Debug().Err(err).Str("file", f.Name()).Msg("skipping unreadable session log")
			continue
		}

		entry := &SessionEntry{
			SessionID:   sessionID,
			CustomTitle: head.CustomTitle,
			Slug:        head.Slug,
			Summary:     head.Summary,
			Project:     head.Cwd,
			GitBranch:   head.GitBranch,
			ProjectDir:  projectDir,
			CreatedAt:   head.CreatedAt,
		}
		if info, err := f.Info(); err == nil {
			entry.UpdatedAt = info.ModTime()
		}
		entries[sessionID] = entry
	}
}

// foldTeamFallbacks fills in working directories for task-bearing
// sessions that no project log matched, using the team config declared
// for the same identifier.
func (r *Resolver) foldTeamFallbacks(entries map[string]*SessionEntry) {
	if r.teams == nil {
		return
	}

	sessionDirs, err := taskstore.ListSessionDirs(r.tasksRoot)
	if err != nil {
		return
	}

	for _, dir := range sessionDirs {
		if _, ok := entries[dir.SessionID]; ok {
			continue
		}
		cfg, ok := r.teams.Load(dir.SessionID)
		if !ok {
			continue
		}
		entry := &SessionEntry{
			SessionID: dir.SessionID,
			Project:   cfg.Cwd,
			FromTeam:  true,
			UpdatedAt: dir.ModTime,
		}
		if cfg.Cwd != "" {
			// The project directory a log for this session would land
			// in; lets sidecar renames work before any log exists.
			entry.ProjectDir = filepath.Join(r.projectsRoot, pathutil.EncodePath(cfg.Cwd))
		}
		entries[dir.SessionID] = entry
	}
}
