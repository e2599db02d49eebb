package app

import (
	"sort"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/metadata"
	"github.com/matt-grain/claude-code-kanban/internal/adapters/taskstore"
	"github.com/matt-grain/claude-code-kanban/internal/adapters/teams"
	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

// Service implements the query and mutation operations consumed by the
// HTTP layer. Task reads are always live directory scans; session
// metadata and team configs go through their caches.
type Service struct {
	store    *taskstore.Store
	resolver *metadata.Resolver
	teams    *teams.Cache
}

// NewService creates the query/mutation facade.
func NewService(store *taskstore.Store, resolver *metadata.Resolver, teamCache *teams.Cache) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		teams:    teamCache,
	}
}

// ListSessions returns all known sessions sorted by most recent
// modification descending, truncated to limit when limit > 0. A session
// is known if it has a task directory, a log-derived metadata entry, or
// both.
func (s *Service) ListSessions(limit int) ([]domain.SessionSummary, error) {
	entries := s.resolver.Resolve()

	sessionDirs, err := taskstore.ListSessionDirs(s.store.Root())
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(sessionDirs))
	summaries := make([]domain.SessionSummary, 0, len(sessionDirs)+len(entries))

	for _, dir := range sessionDirs {
		seen[dir.SessionID] = true
		summary := s.summarize(dir.SessionID, entries[dir.SessionID])
		if dir.ModTime.After(summary.UpdatedAt) {
			summary.UpdatedAt = dir.ModTime
		}
		summaries = append(summaries, summary)
	}

	// Sessions with metadata but no task directory yet.
	for sessionID, entry := range entries {
		if !seen[sessionID] {
			summaries = append(summaries, s.summarize(sessionID, entry))
		}
	}

	sortSummaries(summaries)

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// ListTasks returns one session's tasks sorted by numeric id ascending.
// A session with metadata but no task directory yet is zero tasks; an
// id known to neither source is not found.
func (s *Service) ListTasks(sessionID string) ([]*domain.Task, error) {
	tasks, err := taskstore.ScanTasks(s.store.Root(), sessionID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		if _, ok := s.resolver.Lookup(sessionID); !ok {
			return nil, domain.ErrSessionNotFound
		}
	}
	return tasks, nil
}

// ListAllTasks returns every task across all sessions with session
// display metadata attached.
func (s *Service) ListAllTasks() ([]domain.SessionTask, error) {
	sessionDirs, err := taskstore.ListSessionDirs(s.store.Root())
	if err != nil {
		return nil, err
	}

	entries := s.resolver.Resolve()

	var all []domain.SessionTask
	for _, dir := range sessionDirs {
		tasks, err := taskstore.ScanTasks(s.store.Root(), dir.SessionID)
		if err != nil {
			continue // a directory that disappeared mid-scan is not an error
		}

		var name, project string
		if entry, ok := entries[dir.SessionID]; ok {
			name = entry.DisplayName()
			project = entry.Project
		}
		for _, task := range tasks {
			all = append(all, domain.SessionTask{
				Task:        *task,
				SessionID:   dir.SessionID,
				SessionName: name,
				Project:     project,
			})
		}
	}
	return all, nil
}

// GetTeamConfig returns one team's config or ErrTeamNotFound.
func (s *Service) GetTeamConfig(teamID string) (*domain.TeamConfig, error) {
	cfg, ok := s.teams.Load(teamID)
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	return cfg, nil
}

// CreateTask creates a task in the session.
func (s *Service) CreateTask(sessionID string, params taskstore.CreateParams) (*domain.Task, error) {
	return s.store.Create(sessionID, params)
}

// UpdateTask applies allow-listed field updates to a task.
func (s *Service) UpdateTask(sessionID, taskID string, params taskstore.UpdateParams) (*domain.Task, error) {
	return s.store.Update(sessionID, taskID, params)
}

// DeleteTask removes a task unless other tasks still block on it.
func (s *Service) DeleteTask(sessionID, taskID string) error {
	return s.store.Delete(sessionID, taskID)
}

// AppendNote appends a note to a task's description.
func (s *Service) AppendNote(sessionID, taskID, note string) (*domain.Task, error) {
	return s.store.AppendNote(sessionID, taskID, note)
}

// UpdateSessionMetadata writes user-entered overrides to the session's
// sidecar index file. The log file itself is never written. The
// resolver is invalidated directly so the rename is visible on the next
// query even before the watch path observes the write.
func (s *Service) UpdateSessionMetadata(sessionID, customName, description string) error {
	if customName == "" && description == "" {
		return domain.NewValidationError("metadata", "nothing to update")
	}

	entry, ok := s.resolver.Lookup(sessionID)
	if !ok || entry.ProjectDir == "" {
		return domain.ErrSessionNotFound
	}

	err := metadata.WriteSidecarOverride(entry.ProjectDir, sessionID, metadata.SidecarEntry{
		CustomName:  customName,
		Description: description,
	})
	if err != nil {
		return err
	}

	s.resolver.Invalidate()
	return nil
}

// summarize builds one session's list-view projection from its task
// files, metadata entry, and team config.
func (s *Service) summarize(sessionID string, entry *metadata.SessionEntry) domain.SessionSummary {
	summary := domain.SessionSummary{SessionID: sessionID}

	if entry != nil {
		summary.DisplayName = entry.DisplayName()
		summary.Project = entry.Project
		summary.GitBranch = entry.GitBranch
		summary.CreatedAt = entry.CreatedAt
		summary.UpdatedAt = entry.UpdatedAt
		summary.Description = entry.Description
		if summary.Description == "" {
			summary.Description = entry.Summary
		}
	}

	if tasks, err := taskstore.ScanTasks(s.store.Root(), sessionID); err == nil {
		summary.TaskCount = len(tasks)
		for _, t := range tasks {
			switch t.Status {
			case domain.StatusCompleted:
				summary.Completed++
			case domain.StatusInProgress:
				summary.InProgress++
			}
		}
	}

	if cfg, ok := s.teams.Load(sessionID); ok {
		summary.IsTeam = true
		summary.MemberCount = len(cfg.Members)
		if summary.Project == "" {
			summary.Project = cfg.Cwd
		}
	}

	return summary
}

func sortSummaries(summaries []domain.SessionSummary) {
	// Most recently modified first; ties broken by id for a stable order.
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].SessionID < summaries[j].SessionID
	})
}
