package engine

// Event types pushed to connected editor clients over the event stream.
const (
	EventDocumentReplaced = "document_replaced"
	EventDirtyChanged     = "dirty_changed"
	EventSaveCompleted    = "save_completed"
	EventSaveFailed       = "save_failed"
	EventArtifactCreated  = "artifact_created"
	EventArtifactDeleted  = "artifact_deleted"
	EventArtifactRenamed  = "artifact_renamed"
	EventSelectionChanged = "selection_changed"
	EventFolderCreated    = "folder_created"
	EventFolderDeleted    = "folder_deleted"
	EventFolderRenamed    = "folder_renamed"
)

// Event is one engine-side occurrence worth showing in the editor.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}
