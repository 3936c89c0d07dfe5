package document

import "time"

// Metadata describes the mod the document belongs to.
type Metadata struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Description   string `json:"description,omitempty"`
	Author        string `json:"author,omitempty"`
	ModID         string `json:"mod_id,omitempty"`
	CreatedAt     int64  `json:"created_at"`
	ModifiedAt    int64  `json:"modified_at"`
	EditorVersion string `json:"editor_version"`
}

// ExportSettings controls how the project is packaged for the game.
type ExportSettings struct {
	OutputDir      string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	CompressOutput bool   `json:"compress_output" yaml:"compress_output"`
	BundleAssets   bool   `json:"bundle_assets" yaml:"bundle_assets"`
}

// Document is the whole in-memory project: metadata, selection state, the
// four collections, and export settings. A document is created fresh or
// decoded from a persisted blob, and replaced wholesale when another file is
// opened — it is never partially reused across loads.
type Document struct {
	Meta        Metadata
	Sel         Selection
	Collections map[Kind]*Collection
	Export      ExportSettings
}

// DefaultScriptName is the display name of the script every fresh document
// is seeded with; the script collection must never be empty.
const DefaultScriptName = "main.nut"

// New creates a fresh document seeded with one default script.
func New(name, editorVersion string) *Document {
	now := time.Now().UnixMilli()
	doc := &Document{
		Meta: Metadata{
			Name:          name,
			Version:       "0.1.0",
			CreatedAt:     now,
			ModifiedAt:    now,
			EditorVersion: editorVersion,
		},
		Collections: emptyCollections(),
	}
	seed := doc.Collections[KindScript].CreateArtifact(DefaultScriptName, EmptyScriptGraph())
	doc.Sel.SetActive(KindScript, seed.ID)
	return doc
}

func emptyCollections() map[Kind]*Collection {
	cols := make(map[Kind]*Collection, len(Kinds()))
	for _, k := range Kinds() {
		cols[k] = NewCollection(k)
	}
	return cols
}

// Col returns the collection for kind, or nil for an unknown kind.
func (d *Document) Col(kind Kind) *Collection {
	return d.Collections[kind]
}

// Touch bumps the document-level modification timestamp.
func (d *Document) Touch() {
	now := time.Now().UnixMilli()
	if now <= d.Meta.ModifiedAt {
		now = d.Meta.ModifiedAt + 1
	}
	d.Meta.ModifiedAt = now
}

// ArtifactCount returns the total number of artifacts across collections.
func (d *Document) ArtifactCount() int {
	n := 0
	for _, c := range d.Collections {
		n += c.Len()
	}
	return n
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Meta:        d.Meta,
		Sel:         d.Sel,
		Export:      d.Export,
		Collections: make(map[Kind]*Collection, len(d.Collections)),
	}
	for k, c := range d.Collections {
		out.Collections[k] = c.clone()
	}
	return out
}
