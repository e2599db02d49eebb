// Package domain contains the core entities for the kanban viewer:
// tasks, sessions, teams, and the rules that relate them.
package domain

import (
	"strconv"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// IsValid reports whether s is one of the known task statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task is one unit of trackable work, backed by a single JSON file
// under the tasks root. The file is shared with an external writer,
// so every field must round-trip through JSON unchanged.
type Task struct {
	ID          string            `json:"id"`
	Subject     string            `json:"subject"`
	Description string            `json:"description,omitempty"`
	ActiveForm  string            `json:"activeForm,omitempty"`
	Status      TaskStatus        `json:"status"`
	Blocks      []string          `json:"blocks,omitempty"`
	BlockedBy   []string          `json:"blockedBy,omitempty"`
	Order       *int              `json:"order,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NumericID returns the task id as an integer, or 0 if it is not a
// positive integer (malformed files are skipped upstream, but the
// sort must not panic on garbage).
func (t *Task) NumericID() int {
	n, err := strconv.Atoi(t.ID)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SessionTask is a task annotated with its owning session, used by
// the cross-session task listing.
type SessionTask struct {
	Task
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name,omitempty"`
	Project     string `json:"project,omitempty"`
}

// SessionSummary is the list-view projection of one session.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name,omitempty"`
	Project     string    `json:"project,omitempty"`
	GitBranch   string    `json:"git_branch,omitempty"`
	Description string    `json:"description,omitempty"`
	TaskCount   int       `json:"task_count"`
	Completed   int       `json:"completed_count"`
	InProgress  int       `json:"in_progress_count"`
	IsTeam      bool      `json:"is_team"`
	MemberCount int       `json:"member_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMember is one member entry in a team config file.
type TeamMember struct {
	Name       string `json:"name"`
	AgentColor string `json:"agentColor,omitempty"`
}

// TeamConfig mirrors the config.json written into each team directory.
// Presence of the file is the sole signal that a session is a team session.
type TeamConfig struct {
	Name    string       `json:"name"`
	Cwd     string       `json:"cwd,omitempty"`
	Members []TeamMember `json:"members,omitempty"`
}
