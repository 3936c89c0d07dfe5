// Package config tests.
package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8090", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:8091", cfg.EventsAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FORGE_LISTEN_ADDR", ":9000")
	t.Setenv("FORGE_API_KEY", "secret")
	t.Setenv("FORGE_LOG_LEVEL", "debug")
	t.Setenv("FORGE_EDITOR_VERSION", "1.2.3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "1.2.3", cfg.EditorVersion)
	assert.True(t, cfg.AuthEnabled())
}

func TestCORSOriginList(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://localhost:1420, tauri://localhost ,"}
	assert.Equal(t, []string{"http://localhost:1420", "tauri://localhost"}, cfg.CORSOriginList())
}

func TestResolvedDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/custom/dir"}
	assert.Equal(t, "/custom/dir", cfg.ResolvedDataDir())
	assert.Equal(t, filepath.Join("/custom/dir", "recent.json"), cfg.RecentListPath())
	assert.Equal(t, filepath.Join("/custom/dir", "presets.yaml"), cfg.PresetsPath())

	empty := &Config{}
	assert.NotEmpty(t, empty.ResolvedDataDir())
}
