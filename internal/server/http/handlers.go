package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/matt-grain/claude-code-kanban/internal/adapters/taskstore"
	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.statusFn())
}

// handleListSessions lists sessions sorted by last modification.
// ?limit=N truncates; ?limit=all (or no limit) returns everything.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" && raw != "all" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, domain.ErrCodeValidation, "limit must be a non-negative integer or \"all\"")
			return
		}
		limit = n
	}

	sessions, err := s.svc.ListSessions(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	tasks, err := s.svc.ListTasks(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "tasks": tasks})
}

func (s *Server) handleListAllTasks(w http.ResponseWriter, _ *http.Request) {
	tasks, err := s.svc.ListAllTasks()
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []domain.SessionTask{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTeamConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.GetTeamConfig(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var params taskstore.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSONError(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	task, err := s.svc.CreateTask(sessionID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var params taskstore.UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSONError(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	task, err := s.svc.UpdateTask(vars["id"], vars["taskId"], params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.svc.DeleteTask(vars["id"], vars["taskId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleAppendNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var body struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	task, err := s.svc.AppendNote(vars["id"], vars["taskId"], body.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateSessionMetadata(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var body struct {
		CustomName  string `json:"custom_name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	if err := s.svc.UpdateSessionMetadata(sessionID, body.CustomName, body.Description); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	BlockingIDs []string `json:"blocking_ids,omitempty"`
}

// writeError maps domain failures onto HTTP statuses: validation → 400,
// blocked delete → 409 with the full blocker list, not-found → 404,
// anything else → 500.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var blockedErr *domain.BlockedError

	switch {
	case errors.As(err, &blockedErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:       blockedErr.Error(),
			Code:        domain.ErrCodeTaskBlocked,
			BlockingIDs: blockedErr.BlockedBy,
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: validationErr.Error(),
			Code:  domain.ErrCodeValidation,
		})
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrTeamNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: err.Error(),
			Code:  domain.ErrCodeNotFound,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: err.Error(),
			Code:  domain.ErrCodeInternalError,
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
