package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrSubscriberClosed = errors.New("subscriber is closed")
	ErrHubNotRunning    = errors.New("event hub is not running")
)

// Error codes for client responses.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeTaskBlocked   = "TASK_BLOCKED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// ValidationError represents a rejected mutation: an empty required
// field, an unknown status value, or a disallowed transition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// BlockedError is returned when a task cannot be deleted because other
// tasks still list it in their blockedBy sets. BlockedBy carries every
// blocking id so the caller can name them all.
type BlockedError struct {
	TaskID    string
	BlockedBy []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("task %s cannot be deleted: blocked by task(s) %s",
		e.TaskID, strings.Join(e.BlockedBy, ", "))
}

// NewBlockedError creates a new BlockedError.
func NewBlockedError(taskID string, blockedBy []string) *BlockedError {
	return &BlockedError{TaskID: taskID, BlockedBy: blockedBy}
}

// StoreError represents a failed write against the task store.
type StoreError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("task store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
