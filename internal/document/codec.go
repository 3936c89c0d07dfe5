package document

import (
	"encoding/json"
	"fmt"

	forgeerrors "github.com/r5vtools/forge/internal/errors"
)

// FormatVersion is the current project wire format version. Decoding rejects
// anything newer, and anything missing the minimal shape needed to
// reconstruct all four collections.
const FormatVersion = 1

type wireSettings struct {
	ActiveScript        string          `json:"active_script,omitempty"`
	ActiveWeapon        string          `json:"active_weapon,omitempty"`
	ActiveUI            string          `json:"active_ui,omitempty"`
	ActiveLocalization  string          `json:"active_localization,omitempty"`
	ActiveCollection    Kind            `json:"active_collection"`
	ScriptFolders       []string        `json:"script_folders"`
	WeaponFolders       []string        `json:"weapon_folders"`
	UIFolders           []string        `json:"ui_folders"`
	LocalizationFolders []string        `json:"localization_folders"`
	Export              *ExportSettings `json:"export,omitempty"`
}

type wireDocument struct {
	FormatVersion int           `json:"format_version"`
	Metadata      *Metadata     `json:"metadata"`
	Settings      *wireSettings `json:"settings"`
	Scripts       *[]*Artifact  `json:"scripts"`
	Weapons       *[]*Artifact  `json:"weapons"`
	UI            *[]*Artifact  `json:"ui"`
	Localization  *[]*Artifact  `json:"localization"`
}

// Marshal serializes the document into its versioned wire form. Folder sets
// are written sorted so the output is deterministic for identical documents.
func Marshal(d *Document) ([]byte, error) {
	meta := d.Meta
	export := d.Export
	w := wireDocument{
		FormatVersion: FormatVersion,
		Metadata:      &meta,
		Settings: &wireSettings{
			ActiveScript:        d.Sel.ActiveScript,
			ActiveWeapon:        d.Sel.ActiveWeapon,
			ActiveUI:            d.Sel.ActiveUI,
			ActiveLocalization:  d.Sel.ActiveLocalization,
			ActiveCollection:    d.Sel.ActiveKind,
			ScriptFolders:       d.Col(KindScript).FolderList(),
			WeaponFolders:       d.Col(KindWeapon).FolderList(),
			UIFolders:           d.Col(KindUI).FolderList(),
			LocalizationFolders: d.Col(KindLocalization).FolderList(),
			Export:              &export,
		},
		Scripts:      &d.Col(KindScript).Artifacts,
		Weapons:      &d.Col(KindWeapon).Artifacts,
		UI:           &d.Col(KindUI).Artifacts,
		Localization: &d.Col(KindLocalization).Artifacts,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a wire blob back into a document. Any input missing the
// minimal shape required to reconstruct all four collections is rejected
// with ErrInvalidDocumentFormat — never silently coerced. Active-selection
// ids that do not resolve to an artifact are repaired, not rejected.
func Unmarshal(data []byte) (*Document, error) {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", forgeerrors.ErrInvalidDocumentFormat, err)
	}
	if w.FormatVersion <= 0 || w.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format_version %d", forgeerrors.ErrInvalidDocumentFormat, w.FormatVersion)
	}
	if w.Metadata == nil {
		return nil, fmt.Errorf("%w: missing metadata", forgeerrors.ErrInvalidDocumentFormat)
	}
	if w.Settings == nil {
		return nil, fmt.Errorf("%w: missing settings", forgeerrors.ErrInvalidDocumentFormat)
	}
	lists := map[Kind]*[]*Artifact{
		KindScript:       w.Scripts,
		KindWeapon:       w.Weapons,
		KindUI:           w.UI,
		KindLocalization: w.Localization,
	}
	for _, kind := range Kinds() {
		if lists[kind] == nil {
			return nil, fmt.Errorf("%w: missing %s collection", forgeerrors.ErrInvalidDocumentFormat, kind)
		}
	}
	if len(*w.Scripts) == 0 {
		return nil, fmt.Errorf("%w: script collection is empty", forgeerrors.ErrInvalidDocumentFormat)
	}

	doc := &Document{
		Meta:        *w.Metadata,
		Collections: emptyCollections(),
	}
	if w.Settings.Export != nil {
		doc.Export = *w.Settings.Export
	}
	folders := map[Kind][]string{
		KindScript:       w.Settings.ScriptFolders,
		KindWeapon:       w.Settings.WeaponFolders,
		KindUI:           w.Settings.UIFolders,
		KindLocalization: w.Settings.LocalizationFolders,
	}
	for _, kind := range Kinds() {
		col := doc.Collections[kind]
		for _, a := range *lists[kind] {
			if a == nil || a.ID == "" {
				return nil, fmt.Errorf("%w: %s artifact without id", forgeerrors.ErrInvalidDocumentFormat, kind)
			}
			col.Artifacts = append(col.Artifacts, a)
		}
		for _, f := range folders[kind] {
			if f != "" {
				col.Folders[f] = struct{}{}
			}
		}
	}

	doc.Sel = Selection{
		ActiveScript:       w.Settings.ActiveScript,
		ActiveWeapon:       w.Settings.ActiveWeapon,
		ActiveUI:           w.Settings.ActiveUI,
		ActiveLocalization: w.Settings.ActiveLocalization,
		ActiveKind:         w.Settings.ActiveCollection,
	}
	doc.Sel.normalize(doc.Collections)

	return doc, nil
}
