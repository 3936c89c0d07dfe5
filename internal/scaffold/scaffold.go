// Package scaffold creates the on-disk layout of a new mod: the directory
// tree the game loader expects plus mod.vdf, manifest.json, and a README.
// It also reads and writes reusable export presets as YAML.
package scaffold

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/r5vtools/forge/internal/document"
)

// ModInfo describes the mod being scaffolded.
type ModInfo struct {
	ModID       string `json:"mod_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      string `json:"author"`
}

// subdirs is the directory tree every mod starts with.
var subdirs = []string{
	"scripts",
	filepath.Join("scripts", "vscripts"),
	"paks",
	"audio",
	"resource",
}

// Scaffolder builds mod directories.
type Scaffolder struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *Scaffolder {
	return &Scaffolder{logger: logger.With().Str("component", "scaffold").Logger()}
}

// CreateMod creates <root>/<mod_id> with the standard layout and metadata
// files. Fails if the mod directory already exists.
func (s *Scaffolder) CreateMod(root string, info ModInfo) (string, error) {
	if info.ModID == "" {
		return "", fmt.Errorf("mod id must not be empty")
	}
	modDir := filepath.Join(root, info.ModID)
	if _, err := os.Stat(modDir); err == nil {
		return "", fmt.Errorf("mod directory already exists: %s", modDir)
	}

	for _, sub := range append([]string{"."}, subdirs...) {
		if err := os.MkdirAll(filepath.Join(modDir, sub), 0o755); err != nil {
			return "", fmt.Errorf("create directory: %w", err)
		}
	}
	if err := s.writeVDF(modDir, info); err != nil {
		return "", err
	}
	if err := s.writeManifest(modDir, info); err != nil {
		return "", err
	}
	if err := s.writeReadme(modDir, info); err != nil {
		return "", err
	}

	s.logger.Info().Str("mod_id", info.ModID).Str("path", modDir).Msg("mod scaffolded")
	return modDir, nil
}

func (s *Scaffolder) writeVDF(modDir string, info ModInfo) error {
	content := fmt.Sprintf(`"%s"
{
    "Name"              "%s"
    "Description"       "%s"
    "Version"           "%s"
    "RequiredOnClient"  "1"
}`, info.ModID, info.Name, info.Description, info.Version)
	if err := os.WriteFile(filepath.Join(modDir, "mod.vdf"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write mod.vdf: %w", err)
	}
	return nil
}

// manifest is the loader-facing mod manifest. Content lists start empty;
// the export step fills them in.
type manifest struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Version      string            `json:"version"`
	Author       string            `json:"author"`
	ModID        string            `json:"modId"`
	Scripts      []string          `json:"scripts"`
	RPaks        []string          `json:"rpaks"`
	Audio        []string          `json:"audio"`
	Localization map[string]string `json:"localization"`
}

func (s *Scaffolder) writeManifest(modDir string, info ModInfo) error {
	m := manifest{
		Name:         info.Name,
		Description:  info.Description,
		Version:      info.Version,
		Author:       info.Author,
		ModID:        info.ModID,
		Scripts:      []string{},
		RPaks:        []string{},
		Audio:        []string{},
		Localization: map[string]string{},
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}
	return nil
}

func (s *Scaffolder) writeReadme(modDir string, info ModInfo) error {
	content := fmt.Sprintf(`# %s

%s

## Author
%s

## Version
%s

## Installation
Place this mod in your mods directory.
`, info.Name, info.Description, info.Author, info.Version)
	if err := os.WriteFile(filepath.Join(modDir, "README.md"), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write README.md: %w", err)
	}
	return nil
}

// ExportPreset is a named, reusable export configuration.
type ExportPreset struct {
	Name     string                  `yaml:"name"`
	Settings document.ExportSettings `yaml:"settings"`
}

// LoadPresets reads export presets from a YAML file. A missing file returns
// an empty list.
func LoadPresets(path string) ([]ExportPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var presets []ExportPreset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return presets, nil
}

// SavePresets writes export presets to a YAML file.
func SavePresets(path string, presets []ExportPreset) error {
	data, err := yaml.Marshal(presets)
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create presets directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write presets: %w", err)
	}
	return nil
}
