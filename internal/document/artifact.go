// Package document holds the in-memory project document model: four parallel
// collections of named artifacts organized into virtual folders, the
// selection and dirty-tracking state around them, and the versioned wire
// codec used by persistence.
package document

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the four artifact collections.
type Kind string

const (
	KindScript       Kind = "script"
	KindWeapon       Kind = "weapon"
	KindUI           Kind = "ui"
	KindLocalization Kind = "localization"
)

// Kinds returns all collection kinds in their canonical order.
func Kinds() []Kind {
	return []Kind{KindScript, KindWeapon, KindUI, KindLocalization}
}

// Valid reports whether k names a known collection.
func (k Kind) Valid() bool {
	switch k {
	case KindScript, KindWeapon, KindUI, KindLocalization:
		return true
	}
	return false
}

// kindSuffix is the canonical file-extension convention per collection,
// applied when an artifact is renamed. Weapons and localization tables carry
// no mandatory suffix.
var kindSuffix = map[Kind]string{
	KindScript: ".nut",
	KindUI:     ".rui",
}

// Artifact is one named unit of content in a collection. ID is stable for
// the artifact's lifetime; Name is mutable and is the sole encoding of
// folder membership ('/'-separated). Name uniqueness is not enforced —
// duplicate display names are allowed, identity is the ID.
type Artifact struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	ModifiedAt int64           `json:"modified_at"`
}

func newArtifact(name string, payload json.RawMessage) *Artifact {
	now := time.Now().UnixMilli()
	return &Artifact{
		ID:         uuid.New().String(),
		Name:       name,
		Payload:    payload,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// touch bumps the modification timestamp, guaranteeing it moves forward even
// within a single clock tick.
func (a *Artifact) touch() {
	now := time.Now().UnixMilli()
	if now <= a.ModifiedAt {
		now = a.ModifiedAt + 1
	}
	a.ModifiedAt = now
}
