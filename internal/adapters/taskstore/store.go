package taskstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

// noteSeparator is inserted between the existing description and each
// appended note.
const noteSeparator = "\n\n---\n\n"

// Store applies validated mutations to the task files of one tasks root.
// It writes through the same paths the external writer uses, so its own
// writes surface through the watch path like any external change.
type Store struct {
	root string
}

// NewStore creates a task store rooted at the given tasks directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the tasks root directory.
func (s *Store) Root() string {
	return s.root
}

// CreateParams holds the caller-supplied fields for a new task.
type CreateParams struct {
	Subject     string            `json:"subject"`
	Description string            `json:"description,omitempty"`
	ActiveForm  string            `json:"activeForm,omitempty"`
	Status      domain.TaskStatus `json:"status,omitempty"`
	Blocks      []string          `json:"blocks,omitempty"`
	BlockedBy   []string          `json:"blockedBy,omitempty"`
	Order       *int              `json:"order,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Create writes a new task file with the next unused integer id in the
// session. The id is computed fresh from the current directory listing;
// a race with a concurrent external writer is possible and accepted.
func (s *Store) Create(sessionID string, params CreateParams) (*domain.Task, error) {
	if params.Subject == "" {
		return nil, domain.NewValidationError("subject", "subject cannot be empty")
	}

	status := params.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	tasks, err := ScanTasks(s.root, sessionID)
	if err != nil {
		return nil, domain.NewStoreError("create", err)
	}

	task := &domain.Task{
		ID:          strconv.Itoa(nextID(tasks)),
		Subject:     params.Subject,
		Description: params.Description,
		ActiveForm:  params.ActiveForm,
		Status:      status,
		Blocks:      params.Blocks,
		BlockedBy:   params.BlockedBy,
		Order:       params.Order,
		Metadata:    params.Metadata,
	}

	if err := os.MkdirAll(filepath.Join(s.root, sessionID), 0o755); err != nil {
		return nil, domain.NewStoreError("create", err)
	}
	if err := s.writeTask(sessionID, task); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("task_id", task.ID).
		Msg("task created")

	return task, nil
}

// UpdateParams holds the allow-listed mutable fields of a task. Nil
// pointers mean "leave unchanged"; slices and maps replace wholesale.
type UpdateParams struct {
	Subject     *string            `json:"subject,omitempty"`
	Description *string            `json:"description,omitempty"`
	ActiveForm  *string            `json:"activeForm,omitempty"`
	Status      *domain.TaskStatus `json:"status,omitempty"`
	Blocks      []string           `json:"blocks,omitempty"`
	BlockedBy   []string           `json:"blockedBy,omitempty"`
	Order       *int               `json:"order,omitempty"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

// Update merges the given fields into an existing task and rewrites its
// file. A transition into in_progress is rejected while any task named
// in the current blockedBy set is not completed.
func (s *Store) Update(sessionID, taskID string, params UpdateParams) (*domain.Task, error) {
	tasks, err := ScanTasks(s.root, sessionID)
	if err != nil {
		return nil, domain.NewStoreError("update", err)
	}

	task := findTask(tasks, taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	if params.Status != nil {
		if !params.Status.IsValid() {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *params.Status))
		}
		if *params.Status == domain.StatusInProgress && !domain.CanStart(task, tasks) {
			return nil, domain.NewValidationError("status",
				fmt.Sprintf("task %s cannot start: blocked by incomplete task(s)", taskID))
		}
		task.Status = *params.Status
	}
	if params.Subject != nil {
		if *params.Subject == "" {
			return nil, domain.NewValidationError("subject", "subject cannot be empty")
		}
		task.Subject = *params.Subject
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.ActiveForm != nil {
		task.ActiveForm = *params.ActiveForm
	}
	if params.Blocks != nil {
		task.Blocks = params.Blocks
	}
	if params.BlockedBy != nil {
		task.BlockedBy = params.BlockedBy
	}
	if params.Order != nil {
		task.Order = params.Order
	}
	if params.Metadata != nil {
		task.Metadata = params.Metadata
	}

	if err := s.writeTask(sessionID, task); err != nil {
		return nil, err
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("task_id", taskID).
		Msg("task updated")

	return task, nil
}

// AppendNote appends a note to the task's description behind a fixed
// separator. Existing description content is never replaced.
func (s *Store) AppendNote(sessionID, taskID, note string) (*domain.Task, error) {
	if note == "" {
		return nil, domain.NewValidationError("note", "note cannot be empty")
	}

	tasks, err := ScanTasks(s.root, sessionID)
	if err != nil {
		return nil, domain.NewStoreError("append note", err)
	}

	task := findTask(tasks, taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	if task.Description == "" {
		task.Description = note
	} else {
		task.Description += noteSeparator + note
	}

	if err := s.writeTask(sessionID, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task's backing file. It is refused with the full
// list of blocking ids while any other task in the session lists the
// task in its blockedBy set.
func (s *Store) Delete(sessionID, taskID string) error {
	tasks, err := ScanTasks(s.root, sessionID)
	if err != nil {
		return domain.NewStoreError("delete", err)
	}

	if findTask(tasks, taskID) == nil {
		return domain.ErrTaskNotFound
	}

	if blockers := domain.CanDelete(taskID, tasks); len(blockers) > 0 {
		return domain.NewBlockedError(taskID, blockers)
	}

	path := filepath.Join(s.root, sessionID, taskID+taskFileExt)
	if err := os.Remove(path); err != nil {
		return domain.NewStoreError("delete", err)
	}

	log.Info().
		Str("session_id", sessionID).
		Str("task_id", taskID).
		Msg("task deleted")

	return nil
}

// writeTask rewrites the whole task file in one WriteFile call. No
// partial or append-in-place writes for structured content.
func (s *Store) writeTask(sessionID string, task *domain.Task) error {
	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return domain.NewStoreError("marshal", err)
	}
	path := filepath.Join(s.root, sessionID, task.ID+taskFileExt)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return domain.NewStoreError("write", err)
	}
	return nil
}

// nextID returns max existing numeric id + 1, or 1 for an empty session.
// Ids freed by deleting the highest task are reused; there is no
// historical high-water mark beyond the current directory listing.
func nextID(tasks []*domain.Task) int {
	max := 0
	for _, t := range tasks {
		if n := t.NumericID(); n > max {
			max = n
		}
	}
	return max + 1
}

func findTask(tasks []*domain.Task, id string) *domain.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
