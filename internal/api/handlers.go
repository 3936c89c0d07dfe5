package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/r5vtools/forge/internal/dialog"
	"github.com/r5vtools/forge/internal/document"
	"github.com/r5vtools/forge/internal/engine"
	forgeerrors "github.com/r5vtools/forge/internal/errors"
	"github.com/r5vtools/forge/internal/health"
	"github.com/r5vtools/forge/internal/recent"
	"github.com/r5vtools/forge/internal/scaffold"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine      *engine.Engine
	checker     *health.Checker
	recents     *recent.Store
	scaffolder  *scaffold.Scaffolder
	picker      dialog.Picker
	presetsPath string
	logger      zerolog.Logger
	startTime   time.Time
}

// NewHandlers creates a new Handlers instance. picker may be nil when the
// host provides no native file dialogs.
func NewHandlers(eng *engine.Engine, checker *health.Checker, recents *recent.Store, scaffolder *scaffold.Scaffolder, picker dialog.Picker, presetsPath string, logger zerolog.Logger) *Handlers {
	return &Handlers{
		engine:      eng,
		checker:     checker,
		recents:     recents,
		scaffolder:  scaffolder,
		picker:      picker,
		presetsPath: presetsPath,
		logger:      logger.With().Str("component", "handlers").Logger(),
		startTime:   time.Now(),
	}
}

// engineError maps engine failures onto problem responses.
func engineError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, forgeerrors.ErrUnknownKind):
		return problemResponse(c, fiber.StatusBadRequest,
			"unknown_kind", "Bad Request", err.Error())
	case errors.Is(err, forgeerrors.ErrArtifactNotFound),
		errors.Is(err, forgeerrors.ErrFolderNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"not_found", "Not Found", err.Error())
	case errors.Is(err, forgeerrors.ErrLastScriptProtected):
		return problemResponse(c, fiber.StatusConflict,
			"last_script_protected", "Conflict", err.Error())
	case errors.Is(err, forgeerrors.ErrNoBackingPath):
		return problemResponse(c, fiber.StatusConflict,
			"no_backing_path", "Conflict", err.Error())
	case errors.Is(err, forgeerrors.ErrInvalidDocumentFormat):
		return problemResponse(c, fiber.StatusUnprocessableEntity,
			"invalid_document_format", "Unprocessable Entity", err.Error())
	case forgeerrors.IsStorage(err):
		return problemResponse(c, fiber.StatusBadGateway,
			"storage_error", "Bad Gateway", err.Error())
	}
	return problemResponse(c, fiber.StatusBadRequest,
		"bad_request", "Bad Request", err.Error())
}

func parseKind(c *fiber.Ctx) (document.Kind, bool) {
	kind := document.Kind(c.Params("kind"))
	return kind, kind.Valid()
}

// GetDocument handles GET /api/v1/document.
func (h *Handlers) GetDocument(c *fiber.Ctx) error {
	return c.JSON(DocumentResponse{
		Status:    h.engine.Status(),
		Metadata:  h.engine.Meta(),
		Selection: h.engine.Selection(),
		Export:    h.engine.Export(),
	})
}

// NewDocument handles POST /api/v1/document/new.
func (h *Handlers) NewDocument(c *fiber.Ctx) error {
	var req NewDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	h.engine.NewDocument(req.Name)
	return c.Status(fiber.StatusCreated).JSON(DocumentResponse{
		Status:    h.engine.Status(),
		Metadata:  h.engine.Meta(),
		Selection: h.engine.Selection(),
		Export:    h.engine.Export(),
	})
}

// OpenDocument handles POST /api/v1/document/open.
func (h *Handlers) OpenDocument(c *fiber.Ctx) error {
	var req OpenDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Path == "" {
		if h.picker == nil {
			return problemResponse(c, fiber.StatusBadRequest,
				"missing_path", "Bad Request", "Path is required")
		}
		res, perr := h.picker.PickOpen(c.Context(), false, dialog.ProjectFilter())
		if perr != nil {
			return problemResponse(c, fiber.StatusInternalServerError,
				"dialog_failed", "Internal Server Error", perr.Error())
		}
		if res.Canceled {
			return c.JSON(fiber.Map{"canceled": true, "status": h.engine.Status()})
		}
		req.Path = res.Paths[0]
	}
	if err := h.engine.Open(req.Path); err != nil {
		return engineError(c, err)
	}
	return c.JSON(DocumentResponse{
		Status:    h.engine.Status(),
		Metadata:  h.engine.Meta(),
		Selection: h.engine.Selection(),
		Export:    h.engine.Export(),
	})
}

// SaveDocument handles POST /api/v1/document/save. A never-saved document
// falls through to the host's save picker; cancellation is reported, not
// an error.
func (h *Handlers) SaveDocument(c *fiber.Ctx) error {
	err := h.engine.Save(c.Context())
	if errors.Is(err, forgeerrors.ErrNoBackingPath) && h.picker != nil {
		res, perr := h.picker.PickSave(c.Context(), h.engine.Meta().Name+".r5vp", dialog.ProjectFilter())
		if perr != nil {
			return problemResponse(c, fiber.StatusInternalServerError,
				"dialog_failed", "Internal Server Error", perr.Error())
		}
		if res.Canceled {
			return c.JSON(fiber.Map{"canceled": true, "status": h.engine.Status()})
		}
		err = h.engine.SaveAs(c.Context(), res.Path)
	}
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(h.engine.Status())
}

// SaveDocumentAs handles POST /api/v1/document/save-as.
func (h *Handlers) SaveDocumentAs(c *fiber.Ctx) error {
	var req SaveAsRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Path == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_path", "Bad Request", "Path is required")
	}
	if err := h.engine.SaveAs(c.Context(), req.Path); err != nil {
		return engineError(c, err)
	}
	return c.JSON(h.engine.Status())
}

// PatchMetadata handles PATCH /api/v1/document/metadata.
func (h *Handlers) PatchMetadata(c *fiber.Ctx) error {
	var req MetadataRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if err := h.engine.UpdateMetadata(req.Name, req.Version, req.Description, req.Author, req.ModID); err != nil {
		return engineError(c, err)
	}
	return c.JSON(h.engine.Meta())
}

// PutExport handles PUT /api/v1/document/export.
func (h *Handlers) PutExport(c *fiber.Ctx) error {
	var req document.ExportSettings
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	h.engine.UpdateExport(req)
	return c.JSON(h.engine.Export())
}

// ListArtifacts handles GET /api/v1/collections/:kind/artifacts.
func (h *Handlers) ListArtifacts(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	artifacts, err := h.engine.Artifacts(kind)
	if err != nil {
		return engineError(c, err)
	}
	folders, err := h.engine.Folders(kind)
	if err != nil {
		return engineError(c, err)
	}

	resp := ArtifactListResponse{
		Kind:      string(kind),
		Artifacts: make([]ArtifactResponse, 0, len(artifacts)),
		Folders:   folders,
	}
	sel := h.engine.Selection()
	resp.ActiveID = sel.Active(kind)
	for _, a := range artifacts {
		resp.Artifacts = append(resp.Artifacts, ArtifactResponse{
			Artifact: a,
			Dirty:    h.engine.IsDirty(a.ID),
		})
	}
	return c.JSON(resp)
}

// GetArtifact handles GET /api/v1/collections/:kind/artifacts/:id.
func (h *Handlers) GetArtifact(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	a, err := h.engine.Artifact(kind, c.Params("id"))
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(ArtifactResponse{Artifact: a, Dirty: h.engine.IsDirty(a.ID)})
}

// CreateArtifact handles POST /api/v1/collections/:kind/artifacts.
func (h *Handlers) CreateArtifact(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req CreateArtifactRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	a, err := h.engine.CreateArtifact(kind, req.Name, req.Payload)
	if err != nil {
		return engineError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ArtifactResponse{Artifact: a, Dirty: false})
}

// DeleteArtifact handles DELETE /api/v1/collections/:kind/artifacts/:id.
func (h *Handlers) DeleteArtifact(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	if err := h.engine.DeleteArtifact(kind, c.Params("id")); err != nil {
		return engineError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RenameArtifact handles PATCH /api/v1/collections/:kind/artifacts/:id.
func (h *Handlers) RenameArtifact(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req RenameArtifactRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	a, err := h.engine.RenameArtifact(kind, c.Params("id"), req.Name)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(ArtifactResponse{Artifact: a, Dirty: h.engine.IsDirty(a.ID)})
}

// PutPayload handles PUT /api/v1/collections/:kind/artifacts/:id/payload.
func (h *Handlers) PutPayload(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req PayloadRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if err := h.engine.UpdatePayload(kind, c.Params("id"), req.Payload); err != nil {
		return engineError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SelectArtifact handles POST /api/v1/collections/:kind/artifacts/:id/select.
func (h *Handlers) SelectArtifact(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	if err := h.engine.SelectArtifact(kind, c.Params("id")); err != nil {
		return engineError(c, err)
	}
	return c.JSON(h.engine.Selection())
}

// ListFolders handles GET /api/v1/collections/:kind/folders.
func (h *Handlers) ListFolders(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	folders, err := h.engine.Folders(kind)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(fiber.Map{"kind": string(kind), "folders": folders})
}

// CreateFolder handles POST /api/v1/collections/:kind/folders.
func (h *Handlers) CreateFolder(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req FolderRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Path == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_path", "Bad Request", "Folder path is required")
	}
	if err := h.engine.CreateFolder(kind, req.Path); err != nil {
		return engineError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path": req.Path})
}

// DeleteFolder handles POST /api/v1/collections/:kind/folders/delete.
// POST rather than DELETE: folder paths contain slashes and a body carries
// them without escaping games.
func (h *Handlers) DeleteFolder(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req FolderRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	removed, err := h.engine.DeleteFolder(kind, req.Path)
	if err != nil {
		return engineError(c, err)
	}
	if removed == nil {
		removed = []string{}
	}
	return c.JSON(DeleteFolderResponse{Removed: removed})
}

// RenameFolder handles POST /api/v1/collections/:kind/folders/rename.
func (h *Handlers) RenameFolder(c *fiber.Ctx) error {
	kind, ok := parseKind(c)
	if !ok {
		return engineError(c, forgeerrors.ErrUnknownKind)
	}
	var req RenameFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if err := h.engine.RenameFolder(kind, req.From, req.To); err != nil {
		return engineError(c, err)
	}
	return c.JSON(fiber.Map{"from": req.From, "to": req.To})
}

// ListRecent handles GET /api/v1/recent.
func (h *Handlers) ListRecent(c *fiber.Ctx) error {
	entries := h.recents.List()
	if entries == nil {
		entries = []recent.Entry{}
	}
	return c.JSON(RecentResponse{Entries: entries})
}

// RemoveRecent handles POST /api/v1/recent/remove.
func (h *Handlers) RemoveRecent(c *fiber.Ctx) error {
	var req OpenDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	h.recents.Remove(req.Path)
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateMod handles POST /api/v1/mods.
func (h *Handlers) CreateMod(c *fiber.Ctx) error {
	var req CreateModRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Root == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_root", "Bad Request", "Root directory is required")
	}
	path, err := h.scaffolder.CreateMod(req.Root, req.Mod)
	if err != nil {
		return problemResponse(c, fiber.StatusConflict,
			"scaffold_failed", "Conflict", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(CreateModResponse{Path: path})
}

// GetPresets handles GET /api/v1/presets.
func (h *Handlers) GetPresets(c *fiber.Ctx) error {
	presets, err := scaffold.LoadPresets(h.presetsPath)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"presets_unreadable", "Internal Server Error", err.Error())
	}
	if presets == nil {
		presets = []scaffold.ExportPreset{}
	}
	return c.JSON(PresetsResponse{Presets: presets})
}

// PutPresets handles PUT /api/v1/presets.
func (h *Handlers) PutPresets(c *fiber.Ctx) error {
	var req PresetsResponse
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if err := scaffold.SavePresets(h.presetsPath, req.Presets); err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"presets_unwritable", "Internal Server Error", err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	for _, s := range results {
		if s == health.StatusDown {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": results,
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": results,
	})
}
