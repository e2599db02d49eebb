// Package http implements the JSON API consumed by the viewer layer.
// This surface is thin plumbing; the synchronization engine lives in the
// adapters it calls into.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/taskstore"
	"github.com/matt-grain/claude-code-kanban/internal/domain"
	"github.com/matt-grain/claude-code-kanban/internal/domain/ports"
	"github.com/matt-grain/claude-code-kanban/internal/server/websocket"
)

// Service is the slice of the application the HTTP layer consumes.
type Service interface {
	ListSessions(limit int) ([]domain.SessionSummary, error)
	ListTasks(sessionID string) ([]*domain.Task, error)
	ListAllTasks() ([]domain.SessionTask, error)
	GetTeamConfig(teamID string) (*domain.TeamConfig, error)

	CreateTask(sessionID string, params taskstore.CreateParams) (*domain.Task, error)
	UpdateTask(sessionID, taskID string, params taskstore.UpdateParams) (*domain.Task, error)
	DeleteTask(sessionID, taskID string) error
	AppendNote(sessionID, taskID, note string) (*domain.Task, error)
	UpdateSessionMetadata(sessionID, customName, description string) error
}

// Server is the HTTP API server.
type Server struct {
	server    *http.Server
	addr      string
	svc       Service
	wsHandler *websocket.Handler
	statusFn  func() map[string]interface{}
}

// New creates a new HTTP server with all routes registered.
func New(host string, port int, svc Service, hub ports.EventHub, statusFn func() map[string]interface{}) *Server {
	s := &Server{
		addr:      fmt.Sprintf("%s:%d", host, port),
		svc:       svc,
		wsHandler: websocket.NewHandler(hub),
		statusFn:  statusFn,
	}

	router := mux.NewRouter()
	router.Use(requestLoggingMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	router.HandleFunc("/api/sessions", s.handleListSessions).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/tasks", s.handleListTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/sessions/{id}/tasks", s.handleCreateTask).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/tasks/{taskId}", s.handleUpdateTask).Methods(http.MethodPatch)
	router.HandleFunc("/api/sessions/{id}/tasks/{taskId}", s.handleDeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/api/sessions/{id}/tasks/{taskId}/notes", s.handleAppendNote).Methods(http.MethodPost)
	router.HandleFunc("/api/sessions/{id}/metadata", s.handleUpdateSessionMetadata).Methods(http.MethodPatch)

	router.HandleFunc("/api/tasks", s.handleListAllTasks).Methods(http.MethodGet)
	router.HandleFunc("/api/teams/{id}", s.handleGetTeamConfig).Methods(http.MethodGet)

	router.Handle("/ws", s.wsHandler)

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: router,
		// No Read/WriteTimeout: they would also apply to the upgraded
		// websocket connections and kill long-lived streams.
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Info().Str("addr", s.addr).Msg("HTTP server starting")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("HTTP server stopping")
	s.wsHandler.Shutdown()
	return s.server.Shutdown(ctx)
}

// requestLoggingMiddleware logs all incoming requests for debugging.
func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}
