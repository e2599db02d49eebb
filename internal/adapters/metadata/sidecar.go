package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

// SidecarFileName is the per-project index file holding user-entered
// overrides keyed by session id. Unlike the log files it sits next to,
// this file is owned read-write by this system.
const SidecarFileName = "sessions-index.json"

// SidecarEntry holds the override fields the sidecar owns. It is
// additive to log-derived metadata, never destructive.
type SidecarEntry struct {
	CustomName  string `json:"customName,omitempty"`
	Description string `json:"description,omitempty"`
}

// readSidecar loads a project's sidecar index. A missing or unparseable
// file degrades to an empty map, never an error; the read path always
// prefers partial results.
func readSidecar(projectDir string) map[string]SidecarEntry {
	data, err := os.ReadFile(filepath.Join(projectDir, SidecarFileName))
	if err != nil {
		return nil
	}
	var index map[string]SidecarEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil
	}
	return index
}

// WriteSidecarOverride merges an override for one session into the
// project's sidecar index and rewrites the whole file. Empty fields in
// params leave the stored fields unchanged.
func WriteSidecarOverride(projectDir, sessionID string, entry SidecarEntry) error {
	index := readSidecar(projectDir)
	if index == nil {
		index = make(map[string]SidecarEntry)
	}

	current := index[sessionID]
	if entry.CustomName != "" {
		current.CustomName = entry.CustomName
	}
	if entry.Description != "" {
		current.Description = entry.Description
	}
	index[sessionID] = current

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return domain.NewStoreError("sidecar marshal", err)
	}
	// The project directory may not exist yet for team sessions whose
	// directory name was derived from the team's working directory.
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return domain.NewStoreError("sidecar mkdir", err)
	}
	path := filepath.Join(projectDir, SidecarFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return domain.NewStoreError("sidecar write", err)
	}
	return nil
}
