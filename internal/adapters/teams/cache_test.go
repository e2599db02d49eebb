package teams

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTeamConfig(t *testing.T, root, teamID, content string) {
	t.Helper()
	dir := filepath.Join(root, teamID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestLoadReadsConfig(t *testing.T) {
	root := t.TempDir()
	writeTeamConfig(t, root, "alpha", `{"name":"Alpha Squad","cwd":"/srv/alpha","members":[{"name":"lead","agentColor":"blue"}]}`)

	c := NewCache(root, time.Minute)
	cfg, ok := c.Load("alpha")
	require.True(t, ok)
	assert.Equal(t, "Alpha Squad", cfg.Name)
	assert.Equal(t, "/srv/alpha", cfg.Cwd)
	require.Len(t, cfg.Members, 1)
	assert.Equal(t, "lead", cfg.Members[0].Name)
}

func TestLoadDefaultsNameToDirectory(t *testing.T) {
	root := t.TempDir()
	writeTeamConfig(t, root, "beta", `{"cwd":"/srv/beta"}`)

	c := NewCache(root, time.Minute)
	cfg, ok := c.Load("beta")
	require.True(t, ok)
	assert.Equal(t, "beta", cfg.Name)
}

func TestLoadCachesWithinWindow(t *testing.T) {
	root := t.TempDir()
	writeTeamConfig(t, root, "alpha", `{"name":"before"}`)

	c := NewCache(root, time.Minute)
	cfg, ok := c.Load("alpha")
	require.True(t, ok)
	require.Equal(t, "before", cfg.Name)

	// A disk change inside the window is not observed.
	writeTeamConfig(t, root, "alpha", `{"name":"after"}`)
	cfg, ok = c.Load("alpha")
	require.True(t, ok)
	assert.Equal(t, "before", cfg.Name)
}

func TestEvictForcesReRead(t *testing.T) {
	root := t.TempDir()
	writeTeamConfig(t, root, "alpha", `{"name":"before"}`)

	c := NewCache(root, time.Minute)
	_, ok := c.Load("alpha")
	require.True(t, ok)

	writeTeamConfig(t, root, "alpha", `{"name":"after"}`)
	c.Evict("alpha")

	cfg, ok := c.Load("alpha")
	require.True(t, ok)
	assert.Equal(t, "after", cfg.Name)
}

func TestAbsenceIsCached(t *testing.T) {
	root := t.TempDir()

	c := NewCache(root, time.Minute)
	_, ok := c.Load("ghost")
	require.False(t, ok)

	// Config appearing inside the window is not observed until eviction.
	writeTeamConfig(t, root, "ghost", `{"name":"ghost"}`)
	_, ok = c.Load("ghost")
	assert.False(t, ok)

	c.Evict("ghost")
	_, ok = c.Load("ghost")
	assert.True(t, ok)
}

func TestUnparseableConfigIsAbsent(t *testing.T) {
	root := t.TempDir()
	writeTeamConfig(t, root, "broken", "{nope")

	c := NewCache(root, time.Minute)
	_, ok := c.Load("broken")
	assert.False(t, ok)
}
