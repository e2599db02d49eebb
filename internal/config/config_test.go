package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Point at an empty dir so no stray config file is picked up.
	cfg, err := Load(writeConfigFile(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8790, cfg.Server.Port)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 100, cfg.Watcher.DebounceMS)
	assert.Equal(t, 10, cfg.Cache.MetadataTTLSecs)
	assert.Equal(t, 5, cfg.Cache.TeamTTLSecs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	assert.Equal(t, "tasks", filepath.Base(cfg.Roots.Tasks))
	assert.Equal(t, "projects", filepath.Base(cfg.Roots.Projects))
	assert.Equal(t, "teams", filepath.Base(cfg.Roots.Teams))
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  host: 0.0.0.0
  port: 9000
roots:
  tasks: /data/tasks
watcher:
  enabled: false
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/data/tasks", cfg.Roots.Tasks)
	assert.False(t, cfg.Watcher.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Unset keys keep their defaults.
	assert.Equal(t, 100, cfg.Watcher.DebounceMS)
	assert.Equal(t, "projects", filepath.Base(cfg.Roots.Projects))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfigFile(t, "server:\n  port: 70000\n"))
	assert.Error(t, err)

	_, err = Load(writeConfigFile(t, "logging:\n  format: xml\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8790},
		Roots:  RootsConfig{Tasks: "/t", Projects: "/p", Teams: "/m"},
	}
	assert.NoError(t, Validate(valid))

	noTasks := *valid
	noTasks.Roots.Tasks = ""
	assert.Error(t, Validate(&noTasks))

	badDebounce := *valid
	badDebounce.Watcher.DebounceMS = -1
	assert.Error(t, Validate(&badDebounce))

	badPort := *valid
	badPort.Server.Port = 0
	assert.Error(t, Validate(&badPort))
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
