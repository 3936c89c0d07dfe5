package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"FORGE_ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"FORGE_LOG_LEVEL" default:"info"`

	// Editor
	EditorVersion string `envconfig:"FORGE_EDITOR_VERSION" default:"0.0.0-dev"`
	DataDir       string `envconfig:"FORGE_DATA_DIR"`      // defaults to ~/.r5vforge
	OpenOnStart   string `envconfig:"FORGE_OPEN_ON_START"` // project file to load at startup

	// API
	ListenAddr   string        `envconfig:"FORGE_LISTEN_ADDR" default:"127.0.0.1:8090"`
	APIKey       string        `envconfig:"FORGE_API_KEY"`
	CORSOrigins  string        `envconfig:"FORGE_CORS_ORIGINS" default:"http://localhost:1420"`
	EventsAddr   string        `envconfig:"FORGE_EVENTS_ADDR" default:"127.0.0.1:8091"`
	ReadTimeout  time.Duration `envconfig:"FORGE_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"FORGE_WRITE_TIMEOUT" default:"30s"`
	BodyLimit    int           `envconfig:"FORGE_BODY_LIMIT" default:"16777216"` // project payloads can be large
}

// ResolvedDataDir returns the editor data directory, defaulting to
// ~/.r5vforge when unset.
func (c *Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".r5vforge"
	}
	return filepath.Join(home, ".r5vforge")
}

// RecentListPath returns the path of the recent-documents file.
func (c *Config) RecentListPath() string {
	return filepath.Join(c.ResolvedDataDir(), "recent.json")
}

// PresetsPath returns the path of the export presets file.
func (c *Config) PresetsPath() string {
	return filepath.Join(c.ResolvedDataDir(), "presets.yaml")
}

// CORSOriginList returns the parsed list of allowed origins.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// AuthEnabled returns true if API-key auth is configured.
func (c *Config) AuthEnabled() bool {
	return c.APIKey != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
