package api

import (
	"encoding/json"

	"github.com/r5vtools/forge/internal/document"
	"github.com/r5vtools/forge/internal/engine"
	"github.com/r5vtools/forge/internal/recent"
	"github.com/r5vtools/forge/internal/scaffold"
)

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// DocumentResponse is the editor shell's view of the open document.
type DocumentResponse struct {
	Status    engine.Status           `json:"status"`
	Metadata  document.Metadata       `json:"metadata"`
	Selection document.Selection      `json:"selection"`
	Export    document.ExportSettings `json:"export"`
}

// NewDocumentRequest asks for a fresh document.
type NewDocumentRequest struct {
	Name string `json:"name"`
}

// OpenDocumentRequest asks to load a project file.
type OpenDocumentRequest struct {
	Path string `json:"path"`
}

// SaveAsRequest asks to persist under a new path.
type SaveAsRequest struct {
	Path string `json:"path"`
}

// MetadataRequest carries the writable metadata fields.
type MetadataRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	ModID       string `json:"mod_id"`
}

// ArtifactResponse wraps one artifact with its dirty flag.
type ArtifactResponse struct {
	Artifact document.Artifact `json:"artifact"`
	Dirty    bool              `json:"dirty"`
}

// ArtifactListResponse lists a collection's artifacts and folders.
type ArtifactListResponse struct {
	Kind      string             `json:"kind"`
	Artifacts []ArtifactResponse `json:"artifacts"`
	Folders   []string           `json:"folders"`
	ActiveID  string             `json:"active_id,omitempty"`
}

// CreateArtifactRequest adds an artifact to a collection.
type CreateArtifactRequest struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RenameArtifactRequest renames an artifact.
type RenameArtifactRequest struct {
	Name string `json:"name"`
}

// PayloadRequest replaces an artifact's content.
type PayloadRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// FolderRequest names a folder path.
type FolderRequest struct {
	Path string `json:"path"`
}

// RenameFolderRequest rebases a folder.
type RenameFolderRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DeleteFolderResponse reports the cascade outcome.
type DeleteFolderResponse struct {
	Removed []string `json:"removed"`
}

// RecentResponse lists remembered project files.
type RecentResponse struct {
	Entries []recent.Entry `json:"entries"`
}

// CreateModRequest scaffolds a new mod directory.
type CreateModRequest struct {
	Root string           `json:"root"`
	Mod  scaffold.ModInfo `json:"mod"`
}

// CreateModResponse reports where the mod was scaffolded.
type CreateModResponse struct {
	Path string `json:"path"`
}

// PresetsResponse lists export presets.
type PresetsResponse struct {
	Presets []scaffold.ExportPreset `json:"presets"`
}
