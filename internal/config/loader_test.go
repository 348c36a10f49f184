package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary config file.
func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, found, err := Load(path)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), `
color: never
sinks:
  - path: logs/app
    announce: true
  - path: logs/audit.log
    overwrite: true
`)

	cfg, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)

	assert.Equal(t, ColorNever, cfg.Color)
	require.Len(t, cfg.Sinks, 2)
	assert.Equal(t, "logs/app", cfg.Sinks[0].Path)
	assert.True(t, cfg.Sinks[0].Announce)
	assert.False(t, cfg.Sinks[0].Overwrite)
	assert.Equal(t, "logs/audit.log", cfg.Sinks[1].Path)
	assert.True(t, cfg.Sinks[1].Overwrite)
}

func TestLoadKeepsDefaultColorWhenOmitted(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "sinks:\n  - path: session\n")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, cfg.Color)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "color: [unclosed")

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "color: sometimes\n")

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")
}

func TestDefaultHasNoSinks(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.Empty(t, cfg.Sinks)
	assert.NoError(t, cfg.Validate())
}
