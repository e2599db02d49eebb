// Package app wires the process-wide components together: the task
// store, the metadata resolver, the team config cache, the watch
// coordinator, the event hub, and the HTTP/streaming server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/metadata"
	"github.com/matt-grain/claude-code-kanban/internal/adapters/taskstore"
	"github.com/matt-grain/claude-code-kanban/internal/adapters/teams"
	"github.com/matt-grain/claude-code-kanban/internal/adapters/watcher"
	"github.com/matt-grain/claude-code-kanban/internal/config"
	"github.com/matt-grain/claude-code-kanban/internal/hub"
	httpserver "github.com/matt-grain/claude-code-kanban/internal/server/http"
)

// App owns the single instance of every process-wide component. Caches
// are never package globals; they are created here and passed explicitly
// to the request handlers and the watch coordinator.
type App struct {
	cfg *config.Config

	hub      *hub.Hub
	store    *taskstore.Store
	teams    *teams.Cache
	resolver *metadata.Resolver
	watcher  *watcher.Watcher
	service  *Service
	server   *httpserver.Server

	startTime time.Time
}

// New builds the application from configuration.
func New(cfg *config.Config) *App {
	eventHub := hub.New()
	store := taskstore.NewStore(cfg.Roots.Tasks)
	teamCache := teams.NewCache(cfg.Roots.Teams, time.Duration(cfg.Cache.TeamTTLSecs)*time.Second)
	resolver := metadata.NewResolver(cfg.Roots.Projects, cfg.Roots.Tasks, teamCache,
		time.Duration(cfg.Cache.MetadataTTLSecs)*time.Second)

	fsWatcher := watcher.New(watcher.Config{
		TasksRoot:    cfg.Roots.Tasks,
		ProjectsRoot: cfg.Roots.Projects,
		TeamsRoot:    cfg.Roots.Teams,
		DebounceMS:   cfg.Watcher.DebounceMS,
	}, eventHub, resolver, teamCache)

	a := &App{
		cfg:       cfg,
		hub:       eventHub,
		store:     store,
		teams:     teamCache,
		resolver:  resolver,
		watcher:   fsWatcher,
		startTime: time.Now(),
	}

	a.service = NewService(store, resolver, teamCache)
	a.server = httpserver.New(cfg.Server.Host, cfg.Server.Port, a.service, eventHub, a.Status)

	return a
}

// Start brings up the hub, the watcher, and the server.
func (a *App) Start(ctx context.Context) error {
	if err := a.hub.Start(); err != nil {
		return fmt.Errorf("failed to start event hub: %w", err)
	}

	if a.cfg.Watcher.Enabled {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
	}

	if err := a.server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info().
		Str("tasks_root", a.cfg.Roots.Tasks).
		Str("projects_root", a.cfg.Roots.Projects).
		Str("teams_root", a.cfg.Roots.Teams).
		Msg("kanban server started")

	return nil
}

// Stop shuts everything down in reverse order.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error

	if err := a.server.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.watcher.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.hub.Stop(); err != nil && firstErr == nil {
		firstErr = err
	}

	log.Info().Msg("kanban server stopped")
	return firstErr
}

// Status reports process state for the status endpoint.
func (a *App) Status() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds":  int64(time.Since(a.startTime).Seconds()),
		"subscribers":     a.hub.SubscriberCount(),
		"watcher_running": a.watcher.IsRunning(),
		"tasks_root":      a.cfg.Roots.Tasks,
		"projects_root":   a.cfg.Roots.Projects,
		"teams_root":      a.cfg.Roots.Teams,
	}
}
