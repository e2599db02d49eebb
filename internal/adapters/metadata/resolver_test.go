package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-grain/claude-code-kanban/internal/domain"
)

type stubTeamLoader struct {
	configs map[string]*domain.TeamConfig
}

func (s *stubTeamLoader) Load(teamID string) (*domain.TeamConfig, bool) {
	cfg, ok := s.configs[teamID]
	return cfg, ok
}

func writeLog(t *testing.T, projectDir, sessionID string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	content := ""
	for _, line := range lines {
		content += line + "\n"
	}
	path := filepath.Join(projectDir, sessionID+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sessionLogLine(sessionID string) string {
	return fmt.Sprintf(`{"sessionId":%q,"slug":"fix-login-bug","customTitle":"Login fixes","cwd":"/home/dev/webapp","gitBranch":"main","timestamp":"2026-08-01T10:00:00Z"}`, sessionID)
}

func TestResolveExtractsLogHeadFields(t *testing.T) {
	projectsRoot := t.TempDir()
	projectDir := filepath.Join(projectsRoot, "-home-dev-webapp")
	writeLog(t, projectDir, "abc",
		sessionLogLine("abc"),
		`{"type":"user","message":{"role":"user","content":"please fix the login bug"}}`,
	)

	r := NewResolver(projectsRoot, t.TempDir(), nil, 0)
	entries := r.Resolve()

	entry, ok := entries["abc"]
	require.True(t, ok)
	assert.Equal(t, "Login fixes", entry.CustomTitle)
	assert.Equal(t, "fix-login-bug", entry.Slug)
	assert.Equal(t, "/home/dev/webapp", entry.Project)
	assert.Equal(t, "main", entry.GitBranch)
	assert.Equal(t, "please fix the login bug", entry.Summary)
	assert.Equal(t, projectDir, entry.ProjectDir)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), entry.CreatedAt)
}

func TestResolveCachedWithinWindow(t *testing.T) {
	projectsRoot := t.TempDir()
	writeLog(t, filepath.Join(projectsRoot, "p1"), "abc", sessionLogLine("abc"))

	r := NewResolver(projectsRoot, t.TempDir(), nil, time.Minute)

	first := r.Resolve()
	second := r.Resolve()

	// Reference-identical: no rebuild happened inside the window.
	assert.Equal(t,
		reflect.ValueOf(first).Pointer(),
		reflect.ValueOf(second).Pointer())
}

func TestInvalidateForcesRebuildWithSidecarRename(t *testing.T) {
	projectsRoot := t.TempDir()
	projectDir := filepath.Join(projectsRoot, "p1")
	writeLog(t, projectDir, "abc", sessionLogLine("abc"))

	r := NewResolver(projectsRoot, t.TempDir(), nil, time.Minute)
	entry, ok := r.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "Login fixes", entry.DisplayName())

	// Concurrent sidecar rename, then an explicit invalidation (as the
	// watch coordinator would do) instead of waiting out the window.
	require.NoError(t, WriteSidecarOverride(projectDir, "abc", SidecarEntry{CustomName: "My board"}))
	r.Invalidate()

	entry, ok = r.Lookup("abc")
	require.True(t, ok)
	assert.Equal(t, "My board", entry.CustomName)
	assert.Equal(t, "My board", entry.DisplayName())
	// Log-derived fields survive the sidecar fold.
	assert.Equal(t, "Login fixes", entry.CustomTitle)
	assert.Equal(t, "/home/dev/webapp", entry.Project)
}

func TestDisplayNamePrecedence(t *testing.T) {
	entry := &SessionEntry{CustomName: "rename", CustomTitle: "title", Slug: "slug"}
	assert.Equal(t, "rename", entry.DisplayName())

	entry.CustomName = ""
	assert.Equal(t, "title", entry.DisplayName())

	entry.CustomTitle = ""
	assert.Equal(t, "slug", entry.DisplayName())

	entry.Slug = ""
	assert.Equal(t, "", entry.DisplayName(), "empty means show the raw session id")
}

func TestMalformedSidecarDegradesToAbsent(t *testing.T) {
	projectsRoot := t.TempDir()
	projectDir := filepath.Join(projectsRoot, "p1")
	writeLog(t, projectDir, "abc", sessionLogLine("abc"))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, SidecarFileName), []byte("{broken"), 0o644))

	r := NewResolver(projectsRoot, t.TempDir(), nil, 0)
	entry, ok := r.Lookup("abc")
	require.True(t, ok)
	assert.Empty(t, entry.CustomName)
	assert.Equal(t, "Login fixes", entry.CustomTitle)
}

func TestSidecarOnlySessionGetsEntry(t *testing.T) {
	projectsRoot := t.TempDir()
	projectDir := filepath.Join(projectsRoot, "p1")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	require.NoError(t, WriteSidecarOverride(projectDir, "ghost", SidecarEntry{Description: "manual entry"}))

	r := NewResolver(projectsRoot, t.TempDir(), nil, 0)
	entry, ok := r.Lookup("ghost")
	require.True(t, ok)
	assert.Equal(t, "manual entry", entry.Description)
}

func TestTeamFallbackForUnmatchedSessions(t *testing.T) {
	projectsRoot := t.TempDir()
	tasksRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tasksRoot, "team-1"), 0o755))

	loader := &stubTeamLoader{configs: map[string]*domain.TeamConfig{
		"team-1": {Name: "team-1", Cwd: "/srv/project"},
	}}

	r := NewResolver(projectsRoot, tasksRoot, loader, 0)
	entry, ok := r.Lookup("team-1")
	require.True(t, ok)
	assert.True(t, entry.FromTeam)
	assert.Equal(t, "/srv/project", entry.Project)
	// The derived directory lets sidecar renames land before any log exists.
	assert.Equal(t, filepath.Join(projectsRoot, "-srv-project"), entry.ProjectDir)
}

func TestMissingProjectsRootIsEmpty(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil, 0)
	assert.Empty(t, r.Resolve())
}

func TestScanLogHeadBoundedRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.jsonl")

	// First line carries everything; the rest of the file is beyond the
	// window and must never be needed.
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString(sessionLogLine("big") + "\n")
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"user","message":{"role":"user","content":"work on the big file"}}` + "\n")
	require.NoError(t, err)
	filler := make([]byte, 256*1024)
	for i := range filler {
		filler[i] = 'x'
	}
	_, err = f.Write(filler)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	head, err := scanLogHead(path)
	require.NoError(t, err)
	assert.Equal(t, "fix-login-bug", head.Slug)
	assert.Equal(t, "work on the big file", head.Summary)
}
