// Package taskstore reads and mutates the per-session task files that
// the external writer keeps under the tasks root. Reads are always live
// directory scans; nothing on this path is cached.
package taskstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

// taskFileExt is the suffix of every task file under the tasks root.
const taskFileExt = ".json"

// SessionDir describes one session directory under the tasks root.
type SessionDir struct {
	SessionID string
	ModTime   time.Time
}

// ListSessionDirs enumerates the session directories under root, most
// recently modified first. A missing root is zero sessions, not an error.
func ListSessionDirs(root string) ([]SessionDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []SessionDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, SessionDir{
			SessionID: entry.Name(),
			ModTime:   info.ModTime(),
		})
	}

	sort.Slice(dirs, func(i, j int) bool {
		return dirs[i].ModTime.After(dirs[j].ModTime)
	})

	return dirs, nil
}

// ScanTasks parses every task file in one session directory, sorted by
// numeric id ascending. Files that fail structural parsing are skipped;
// partial results are always preferred to an error on this read path.
// A missing directory yields nil; an existing directory with no task
// files yields an empty, non-nil slice.
func ScanTasks(root, sessionID string) ([]*domain.Task, error) {
	dir := filepath.Join(root, sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), taskFileExt) {
			continue
		}

		task, err := readTaskFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Debug().Err(err).
				Str("session_id", sessionID).
				Str("file", entry.Name()).
				Msg("skipping unparseable task file")
			continue
		}
		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].NumericID() < tasks[j].NumericID()
	})

	return tasks, nil
}

// readTaskFile parses a single task file. A file without an id or
// subject is considered malformed.
func readTaskFile(path string) (*domain.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	if task.ID == "" || task.Subject == "" {
		return nil, domain.NewValidationError("id/subject", "missing required field")
	}
	return &task, nil
}
