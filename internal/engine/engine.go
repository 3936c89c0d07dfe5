// Package engine is the composition root of the document lifecycle: it owns
// the single live document, its dirty tracking, and the mutation surface the
// API exposes. Every mutation is applied atomically under one lock, and
// structural mutations hand a persist intent to the pipeline once the
// document has a backing path.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/r5vtools/forge/internal/document"
	forgeerrors "github.com/r5vtools/forge/internal/errors"
	"github.com/r5vtools/forge/internal/metrics"
	"github.com/r5vtools/forge/internal/persist"
	"github.com/r5vtools/forge/internal/storage"
)

// Saver is the persistence collaborator. Trigger enqueues a coalescing
// auto-save intent; Save performs an explicit save and waits for it.
type Saver interface {
	Trigger()
	Save(ctx context.Context, pathOverride string) error
}

// Notifier receives engine events for fan-out to connected editor clients.
type Notifier interface {
	Notify(Event)
}

// RecentRecorder is notified whenever a document gains or confirms a
// backing path, so the host can maintain a recent-documents list.
type RecentRecorder interface {
	Record(path string)
}

// Engine owns the live document and serializes all access to it.
type Engine struct {
	mu          sync.Mutex
	doc         *document.Document
	dirty       *document.DirtyTracker
	gen         uint64
	backingPath string
	lastSave    storage.WriteInfo

	store         storage.Store
	saver         Saver
	notifier      Notifier
	recents       RecentRecorder
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	editorVersion string
}

// New creates an engine seeded with a fresh untitled document.
func New(store storage.Store, m *metrics.Metrics, logger zerolog.Logger, editorVersion string) *Engine {
	e := &Engine{
		store:         store,
		metrics:       m,
		logger:        logger.With().Str("component", "engine").Logger(),
		editorVersion: editorVersion,
	}
	e.doc = document.New("untitled", editorVersion)
	e.dirty = document.NewDirtyTracker()
	e.syncArtifactGauges()
	return e
}

// SetSaver wires the persistence pipeline in. Called once during startup;
// the engine and the pipeline reference each other, so one side attaches
// after construction.
func (e *Engine) SetSaver(s Saver) {
	e.mu.Lock()
	e.saver = s
	e.mu.Unlock()
}

// SetNotifier wires the event fan-out in.
func (e *Engine) SetNotifier(n Notifier) {
	e.mu.Lock()
	e.notifier = n
	e.mu.Unlock()
}

// SetRecentRecorder wires the recent-documents list in.
func (e *Engine) SetRecentRecorder(r RecentRecorder) {
	e.mu.Lock()
	e.recents = r
	e.mu.Unlock()
}

// --- document lifecycle ---

// NewDocument replaces the live document with a fresh one. The previous
// document is discarded; callers gate on Unsaved() before asking for this.
func (e *Engine) NewDocument(name string) {
	if name == "" {
		name = "untitled"
	}
	e.mu.Lock()
	e.doc = document.New(name, e.editorVersion)
	e.dirty = document.NewDirtyTracker()
	e.dirty.MarkStructural() // fresh document has no persisted form yet
	e.backingPath = ""
	e.gen++
	e.syncArtifactGauges()
	e.mu.Unlock()

	e.logger.Info().Str("name", name).Msg("new document created")
	e.notify(Event{Type: EventDocumentReplaced, Data: map[string]any{"name": name, "path": ""}})
	e.notifyDirty()
}

// Open loads a project file and replaces the live document. On any failure
// the current document is left untouched and the error is returned.
func (e *Engine) Open(path string) error {
	data, err := e.store.Read(path)
	if err != nil {
		e.metrics.RecordError("engine", "open_read")
		return err
	}
	doc, err := document.Unmarshal(data)
	if err != nil {
		e.metrics.RecordError("engine", "open_decode")
		return err
	}

	e.mu.Lock()
	e.doc = doc
	e.dirty = document.NewDirtyTracker()
	e.backingPath = path
	e.gen++
	e.syncArtifactGauges()
	recents := e.recents
	e.mu.Unlock()

	e.logger.Info().
		Str("path", path).
		Int("artifacts", doc.ArtifactCount()).
		Msg("document opened")
	if recents != nil {
		recents.Record(path)
	}
	e.notify(Event{Type: EventDocumentReplaced, Data: map[string]any{"name": doc.Meta.Name, "path": path}})
	e.notifyDirty()
	return nil
}

// Save persists the document to its backing path and waits for the write.
func (e *Engine) Save(ctx context.Context) error {
	return e.saveVia(ctx, "")
}

// SaveAs persists the document to path, which becomes the new backing path
// on success.
func (e *Engine) SaveAs(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("save-as path must not be empty")
	}
	return e.saveVia(ctx, path)
}

func (e *Engine) saveVia(ctx context.Context, pathOverride string) error {
	e.mu.Lock()
	saver := e.saver
	e.mu.Unlock()
	if saver == nil {
		return fmt.Errorf("no persistence pipeline attached")
	}
	return saver.Save(ctx, pathOverride)
}

// BackingPath returns the current backing file path ("" for a never-saved
// document).
func (e *Engine) BackingPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.backingPath
}

// --- persist.Source ---

// Snapshot serializes the live document for the persistence pipeline.
func (e *Engine) Snapshot(pathOverride string) (persist.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.backingPath
	saveAs := false
	if pathOverride != "" {
		path = pathOverride
		saveAs = true
	}
	if path == "" {
		return persist.Snapshot{}, forgeerrors.ErrNoBackingPath
	}
	data, err := document.Marshal(e.doc)
	if err != nil {
		return persist.Snapshot{}, fmt.Errorf("serialize document: %w", err)
	}
	return persist.Snapshot{Path: path, Data: data, Generation: e.gen, SaveAs: saveAs}, nil
}

// SaveResult applies the outcome of a completed write. Dirty state clears
// only when the persisted snapshot covered the latest mutation; a stale
// snapshot leaves the document unsaved so a newer save follows.
func (e *Engine) SaveResult(snap persist.Snapshot, info storage.WriteInfo, err error) {
	if err != nil {
		e.notify(Event{Type: EventSaveFailed, Data: map[string]any{
			"path":  snap.Path,
			"error": err.Error(),
		}})
		return
	}

	e.mu.Lock()
	if snap.SaveAs {
		e.backingPath = snap.Path
	}
	e.lastSave = info
	covered := snap.Generation == e.gen
	if covered {
		e.dirty.MarkAllClean()
	}
	recents := e.recents
	e.mu.Unlock()

	if recents != nil {
		recents.Record(snap.Path)
	}
	e.notify(Event{Type: EventSaveCompleted, Data: map[string]any{
		"path":            snap.Path,
		"original_size":   info.OriginalSize,
		"compressed_size": info.CompressedSize,
	}})
	if covered {
		e.notifyDirty()
	}
}

// --- artifact operations ---

// CreateArtifact adds an artifact to the kind's collection and makes it the
// active one. A nil payload gets the kind's empty default.
func (e *Engine) CreateArtifact(kind document.Kind, name string, payload json.RawMessage) (document.Artifact, error) {
	if !kind.Valid() {
		return document.Artifact{}, forgeerrors.ErrUnknownKind
	}
	if name == "" {
		return document.Artifact{}, fmt.Errorf("artifact name must not be empty")
	}
	if payload == nil {
		payload = defaultPayload(kind)
	}

	e.mu.Lock()
	col := e.doc.Col(kind)
	a := col.CreateArtifact(name, payload)
	e.doc.Sel.SetActive(kind, a.ID)
	e.afterStructural(kind, "create_artifact")
	out := *a
	e.mu.Unlock()

	e.notify(Event{Type: EventArtifactCreated, Data: map[string]any{"kind": string(kind), "id": out.ID, "name": out.Name}})
	e.notifyDirty()
	e.triggerAutoSave()
	return out, nil
}

// DeleteArtifact removes an artifact. The last remaining script is
// protected; the active pointer is repaired so it never dangles.
func (e *Engine) DeleteArtifact(kind document.Kind, id string) error {
	if !kind.Valid() {
		return forgeerrors.ErrUnknownKind
	}

	e.mu.Lock()
	col := e.doc.Col(kind)
	if col.Get(id) == nil {
		e.mu.Unlock()
		return forgeerrors.ErrArtifactNotFound
	}
	if !col.DeleteArtifact(id) {
		e.mu.Unlock()
		return forgeerrors.ErrLastScriptProtected
	}
	e.doc.Sel.OnArtifactDeleted(kind, id, col)
	e.dirty.Forget(id)
	e.afterStructural(kind, "delete_artifact")
	e.mu.Unlock()

	e.notify(Event{Type: EventArtifactDeleted, Data: map[string]any{"kind": string(kind), "id": id}})
	e.notifyDirty()
	e.triggerAutoSave()
	return nil
}

// RenameArtifact replaces an artifact's display name, applying the
// collection's suffix convention.
func (e *Engine) RenameArtifact(kind document.Kind, id, newName string) (document.Artifact, error) {
	if !kind.Valid() {
		return document.Artifact{}, forgeerrors.ErrUnknownKind
	}
	if newName == "" {
		return document.Artifact{}, fmt.Errorf("artifact name must not be empty")
	}

	e.mu.Lock()
	col := e.doc.Col(kind)
	if !col.RenameArtifact(id, newName) {
		e.mu.Unlock()
		return document.Artifact{}, forgeerrors.ErrArtifactNotFound
	}
	e.afterStructural(kind, "rename_artifact")
	out := *col.Get(id)
	e.mu.Unlock()

	e.notify(Event{Type: EventArtifactRenamed, Data: map[string]any{"kind": string(kind), "id": id, "name": out.Name}})
	e.notifyDirty()
	e.triggerAutoSave()
	return out, nil
}

// UpdatePayload replaces an artifact's content. Content edits mark the
// artifact dirty but do not auto-save; persistence of content rides on the
// next structural mutation or an explicit save.
func (e *Engine) UpdatePayload(kind document.Kind, id string, payload json.RawMessage) error {
	if !kind.Valid() {
		return forgeerrors.ErrUnknownKind
	}

	e.mu.Lock()
	if !e.doc.Col(kind).UpdatePayload(id, payload) {
		e.mu.Unlock()
		return forgeerrors.ErrArtifactNotFound
	}
	e.dirty.MarkDirty(id)
	e.gen++
	e.doc.Touch()
	e.metrics.RecordMutation(string(kind), "update_payload")
	e.mu.Unlock()

	e.notifyDirty()
	return nil
}

// SelectArtifact makes id the active artifact for kind and focuses that
// collection. Selection is UI state: it does not mark the document unsaved.
func (e *Engine) SelectArtifact(kind document.Kind, id string) error {
	if !kind.Valid() {
		return forgeerrors.ErrUnknownKind
	}

	e.mu.Lock()
	if e.doc.Col(kind).Get(id) == nil {
		e.mu.Unlock()
		return forgeerrors.ErrArtifactNotFound
	}
	e.doc.Sel.SetActive(kind, id)
	e.mu.Unlock()

	e.notify(Event{Type: EventSelectionChanged, Data: map[string]any{"kind": string(kind), "id": id}})
	return nil
}

// --- folder operations ---

// CreateFolder inserts a virtual folder. Creating an existing folder is an
// idempotent no-op.
func (e *Engine) CreateFolder(kind document.Kind, path string) error {
	if !kind.Valid() {
		return forgeerrors.ErrUnknownKind
	}
	if path == "" {
		return fmt.Errorf("folder path must not be empty")
	}

	e.mu.Lock()
	changed := e.doc.Col(kind).CreateFolder(path)
	if changed {
		e.afterStructural(kind, "create_folder")
	}
	e.mu.Unlock()

	if !changed {
		return nil
	}
	e.notify(Event{Type: EventFolderCreated, Data: map[string]any{"kind": string(kind), "path": path}})
	e.notifyDirty()
	e.triggerAutoSave()
	return nil
}

// DeleteFolder removes a folder and cascades over nested folders and member
// artifacts. The cascade is all-or-nothing: it is refused when it would
// leave the script collection empty.
func (e *Engine) DeleteFolder(kind document.Kind, path string) ([]string, error) {
	if !kind.Valid() {
		return nil, forgeerrors.ErrUnknownKind
	}

	e.mu.Lock()
	col := e.doc.Col(kind)
	if _, ok := col.Folders[path]; !ok {
		e.mu.Unlock()
		return nil, forgeerrors.ErrFolderNotFound
	}
	removed, changed := col.DeleteFolder(path)
	if !changed {
		e.mu.Unlock()
		return nil, forgeerrors.ErrLastScriptProtected
	}
	e.dirty.Forget(removed...)
	if active := e.doc.Sel.Active(kind); active != "" && col.Get(active) == nil {
		e.doc.Sel.OnArtifactDeleted(kind, active, col)
	}
	e.afterStructural(kind, "delete_folder")
	e.mu.Unlock()

	e.notify(Event{Type: EventFolderDeleted, Data: map[string]any{
		"kind":    string(kind),
		"path":    path,
		"removed": removed,
	}})
	e.notifyDirty()
	e.triggerAutoSave()
	return removed, nil
}

// RenameFolder rebases a folder, its nested folders, and its member
// artifacts onto a new path.
func (e *Engine) RenameFolder(kind document.Kind, oldPath, newPath string) error {
	if !kind.Valid() {
		return forgeerrors.ErrUnknownKind
	}
	if newPath == "" {
		return fmt.Errorf("folder path must not be empty")
	}

	e.mu.Lock()
	col := e.doc.Col(kind)
	if _, ok := col.Folders[oldPath]; !ok {
		e.mu.Unlock()
		return forgeerrors.ErrFolderNotFound
	}
	if !col.RenameFolder(oldPath, newPath) {
		// old and new path identical
		e.mu.Unlock()
		return nil
	}
	e.afterStructural(kind, "rename_folder")
	e.mu.Unlock()

	e.notify(Event{Type: EventFolderRenamed, Data: map[string]any{
		"kind": string(kind),
		"from": oldPath,
		"to":   newPath,
	}})
	e.notifyDirty()
	e.triggerAutoSave()
	return nil
}

// --- metadata and export settings ---

// UpdateMetadata replaces the document's mod metadata. Creation timestamp
// and editor version are engine-owned and not writable from outside.
func (e *Engine) UpdateMetadata(name, version, description, author, modID string) error {
	if name == "" {
		return fmt.Errorf("document name must not be empty")
	}

	e.mu.Lock()
	e.doc.Meta.Name = name
	e.doc.Meta.Version = version
	e.doc.Meta.Description = description
	e.doc.Meta.Author = author
	e.doc.Meta.ModID = modID
	e.dirty.MarkStructural()
	e.gen++
	e.doc.Touch()
	e.metrics.RecordMutation("document", "update_metadata")
	e.mu.Unlock()

	e.notifyDirty()
	e.triggerAutoSave()
	return nil
}

// UpdateExport replaces the document's export settings.
func (e *Engine) UpdateExport(export document.ExportSettings) {
	e.mu.Lock()
	e.doc.Export = export
	e.dirty.MarkStructural()
	e.gen++
	e.doc.Touch()
	e.metrics.RecordMutation("document", "update_export")
	e.mu.Unlock()

	e.notifyDirty()
	e.triggerAutoSave()
}

// --- read accessors ---

// Meta returns a copy of the document metadata.
func (e *Engine) Meta() document.Metadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Meta
}

// Export returns a copy of the export settings.
func (e *Engine) Export() document.ExportSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Export
}

// Selection returns a copy of the selection state.
func (e *Engine) Selection() document.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Sel
}

// Artifact returns a copy of one artifact.
func (e *Engine) Artifact(kind document.Kind, id string) (document.Artifact, error) {
	if !kind.Valid() {
		return document.Artifact{}, forgeerrors.ErrUnknownKind
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.doc.Col(kind).Get(id)
	if a == nil {
		return document.Artifact{}, forgeerrors.ErrArtifactNotFound
	}
	return *a, nil
}

// Artifacts returns copies of every artifact of a kind, in list order.
func (e *Engine) Artifacts(kind document.Kind) ([]document.Artifact, error) {
	if !kind.Valid() {
		return nil, forgeerrors.ErrUnknownKind
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	col := e.doc.Col(kind)
	out := make([]document.Artifact, 0, col.Len())
	for _, a := range col.Artifacts {
		out = append(out, *a)
	}
	return out, nil
}

// Folders returns the sorted folder list for a kind.
func (e *Engine) Folders(kind document.Kind) ([]string, error) {
	if !kind.Valid() {
		return nil, forgeerrors.ErrUnknownKind
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Col(kind).FolderList(), nil
}

// Unsaved reports whether the document differs from its last persisted
// state.
func (e *Engine) Unsaved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty.Unsaved()
}

// IsDirty reports whether one artifact has unsaved content changes.
func (e *Engine) IsDirty(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty.IsDirty(id)
}

// Status summarizes the document state for the editor shell.
type Status struct {
	Name          string `json:"name"`
	BackingPath   string `json:"backing_path,omitempty"`
	Unsaved       bool   `json:"unsaved"`
	DirtyCount    int    `json:"dirty_count"`
	ArtifactCount int    `json:"artifact_count"`

	// Sizes from the most recent successful save, zero before any save.
	SavedBytes     int `json:"saved_bytes,omitempty"`
	CompressedSize int `json:"compressed_size,omitempty"`
}

// Status returns a point-in-time summary of the document.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Name:          e.doc.Meta.Name,
		BackingPath:   e.backingPath,
		Unsaved:       e.dirty.Unsaved(),
		DirtyCount:    e.dirty.DirtyCount(),
		ArtifactCount: e.doc.ArtifactCount(),

		SavedBytes:     e.lastSave.OriginalSize,
		CompressedSize: e.lastSave.CompressedSize,
	}
}

// --- internals ---

// afterStructural runs dirty tracking, generation bump, and metrics for a
// structural mutation. Callers hold the lock.
func (e *Engine) afterStructural(kind document.Kind, op string) {
	e.dirty.MarkStructural()
	e.gen++
	e.doc.Touch()
	e.metrics.RecordMutation(string(kind), op)
	e.syncArtifactGauges()
}

// syncArtifactGauges pushes current collection sizes to metrics. Callers
// hold the lock.
func (e *Engine) syncArtifactGauges() {
	for _, k := range document.Kinds() {
		e.metrics.SetArtifacts(string(k), e.doc.Col(k).Len())
	}
}

func (e *Engine) triggerAutoSave() {
	e.mu.Lock()
	saver := e.saver
	hasPath := e.backingPath != ""
	e.mu.Unlock()
	if saver != nil && hasPath {
		saver.Trigger()
	}
}

func (e *Engine) notify(evt Event) {
	e.mu.Lock()
	n := e.notifier
	e.mu.Unlock()
	if n != nil {
		n.Notify(evt)
	}
}

func (e *Engine) notifyDirty() {
	e.mu.Lock()
	unsaved := e.dirty.Unsaved()
	count := e.dirty.DirtyCount()
	n := e.notifier
	e.mu.Unlock()
	if n != nil {
		n.Notify(Event{Type: EventDirtyChanged, Data: map[string]any{
			"unsaved":     unsaved,
			"dirty_count": count,
		}})
	}
}

func defaultPayload(kind document.Kind) json.RawMessage {
	switch kind {
	case document.KindScript:
		return document.EmptyScriptGraph()
	case document.KindWeapon:
		return document.MustPayload(document.WeaponDef{})
	case document.KindUI:
		return document.MustPayload(document.UILayout{})
	case document.KindLocalization:
		return document.MustPayload(document.LocalizationTable{})
	}
	return nil
}
