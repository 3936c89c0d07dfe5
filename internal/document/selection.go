package document

// Selection tracks, per collection, which artifact is active, plus the
// single document-wide discriminator naming the collection in focus.
type Selection struct {
	ActiveScript       string `json:"active_script,omitempty"`
	ActiveWeapon       string `json:"active_weapon,omitempty"`
	ActiveUI           string `json:"active_ui,omitempty"`
	ActiveLocalization string `json:"active_localization,omitempty"`
	ActiveKind         Kind   `json:"active_collection"`
}

// Active returns the active artifact id for the given kind ("" when none).
func (s *Selection) Active(kind Kind) string {
	switch kind {
	case KindScript:
		return s.ActiveScript
	case KindWeapon:
		return s.ActiveWeapon
	case KindUI:
		return s.ActiveUI
	case KindLocalization:
		return s.ActiveLocalization
	}
	return ""
}

// SetActive makes id the active artifact for kind and moves focus to that
// collection. Switching focus is a deliberate side effect: the UI always
// shows the most recently touched kind.
func (s *Selection) SetActive(kind Kind, id string) {
	switch kind {
	case KindScript:
		s.ActiveScript = id
	case KindWeapon:
		s.ActiveWeapon = id
	case KindUI:
		s.ActiveUI = id
	case KindLocalization:
		s.ActiveLocalization = id
	default:
		return
	}
	s.ActiveKind = kind
}

// OnArtifactDeleted repairs the active pointer after a deletion so it never
// dangles: if the deleted artifact was active, the first remaining artifact
// (stable list order) becomes active, or the pointer is cleared when the
// collection emptied. An emptied focused collection falls back to Script.
func (s *Selection) OnArtifactDeleted(kind Kind, deletedID string, col *Collection) {
	if s.Active(kind) != deletedID {
		return
	}
	next := ""
	if first := col.First(); first != nil {
		next = first.ID
	}
	s.assign(kind, next)
	if next == "" && s.ActiveKind == kind {
		s.ActiveKind = KindScript
	}
}

// assign sets the active pointer without moving focus.
func (s *Selection) assign(kind Kind, id string) {
	switch kind {
	case KindScript:
		s.ActiveScript = id
	case KindWeapon:
		s.ActiveWeapon = id
	case KindUI:
		s.ActiveUI = id
	case KindLocalization:
		s.ActiveLocalization = id
	}
}

// normalize clears active pointers that reference artifacts no longer in
// their collection and resets an invalid focus. Used after decoding a
// document from the wire, where nothing guarantees the ids still exist.
func (s *Selection) normalize(cols map[Kind]*Collection) {
	for _, kind := range Kinds() {
		id := s.Active(kind)
		if id == "" {
			continue
		}
		col := cols[kind]
		if col == nil {
			s.assign(kind, "")
			continue
		}
		if col.Get(id) == nil {
			s.OnArtifactDeleted(kind, id, col)
		}
	}
	if !s.ActiveKind.Valid() {
		s.ActiveKind = KindScript
	}
}
