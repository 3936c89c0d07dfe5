package document

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/r5vtools/forge/internal/vpath"
)

// Collection holds the ordered artifact list and the explicit folder set for
// one artifact kind. Folders exist independently of members so that empty
// folders survive; an artifact's folder membership is encoded entirely in
// its display name. Every mutating method reports whether anything changed
// so the caller can decide whether to touch dirty tracking and persistence.
type Collection struct {
	Kind      Kind
	Artifacts []*Artifact
	Folders   map[string]struct{}
}

// NewCollection creates an empty collection of the given kind.
func NewCollection(kind Kind) *Collection {
	return &Collection{
		Kind:      kind,
		Artifacts: []*Artifact{},
		Folders:   map[string]struct{}{},
	}
}

// Len returns the number of artifacts.
func (c *Collection) Len() int { return len(c.Artifacts) }

// Get returns the artifact with the given id, or nil.
func (c *Collection) Get(id string) *Artifact {
	for _, a := range c.Artifacts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// First returns the first artifact in list order, or nil when empty.
func (c *Collection) First() *Artifact {
	if len(c.Artifacts) == 0 {
		return nil
	}
	return c.Artifacts[0]
}

// CreateArtifact appends a new artifact with a fresh id. Intermediate path
// segments in name do not implicitly become folder entries.
func (c *Collection) CreateArtifact(name string, payload json.RawMessage) *Artifact {
	a := newArtifact(name, payload)
	c.Artifacts = append(c.Artifacts, a)
	return a
}

// DeleteArtifact removes the artifact with the given id. Deleting the last
// remaining script is refused as a no-op: the script collection must never
// become empty. Returns whether a removal happened.
func (c *Collection) DeleteArtifact(id string) bool {
	idx := -1
	for i, a := range c.Artifacts {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if c.Kind == KindScript && len(c.Artifacts) == 1 {
		return false
	}
	c.Artifacts = append(c.Artifacts[:idx], c.Artifacts[idx+1:]...)
	return true
}

// RenameArtifact replaces the display name and bumps the modification
// timestamp. The collection's canonical suffix convention is applied here,
// not by the caller. Returns whether the artifact exists.
func (c *Collection) RenameArtifact(id, newName string) bool {
	a := c.Get(id)
	if a == nil {
		return false
	}
	a.Name = c.normalizeName(newName)
	a.touch()
	return true
}

// UpdatePayload replaces the artifact's content in place.
func (c *Collection) UpdatePayload(id string, payload json.RawMessage) bool {
	a := c.Get(id)
	if a == nil {
		return false
	}
	a.Payload = payload
	a.touch()
	return true
}

// CreateFolder inserts a folder path. Idempotent: inserting an existing
// folder is a no-op and reports false.
func (c *Collection) CreateFolder(path string) bool {
	if path == "" {
		return false
	}
	if _, ok := c.Folders[path]; ok {
		return false
	}
	c.Folders[path] = struct{}{}
	return true
}

// DeleteFolder removes the folder, every folder nested under it, and every
// artifact whose name is a descendant of it. The cascade is atomic: when it
// would strip the script collection bare it is refused wholesale and nothing
// is removed. Returns the ids of removed artifacts and whether anything
// changed.
func (c *Collection) DeleteFolder(path string) ([]string, bool) {
	if _, ok := c.Folders[path]; !ok {
		return nil, false
	}

	keep := make([]*Artifact, 0, len(c.Artifacts))
	var removed []string
	for _, a := range c.Artifacts {
		if vpath.IsDescendant(a.Name, path) {
			removed = append(removed, a.ID)
		} else {
			keep = append(keep, a)
		}
	}
	if c.Kind == KindScript && len(keep) == 0 && len(c.Artifacts) > 0 {
		return nil, false
	}

	c.Artifacts = keep
	for f := range c.Folders {
		if vpath.IsDescendant(f, path) {
			delete(c.Folders, f)
		}
	}
	return removed, true
}

// RenameFolder rebases the folder itself, every nested folder, and every
// member artifact name from oldPath to newPath. Non-descendant entries are
// untouched. Collisions with unrelated folders are last-write-wins; this is
// an accepted limitation of the flat string namespace, not a defect.
func (c *Collection) RenameFolder(oldPath, newPath string) bool {
	if _, ok := c.Folders[oldPath]; !ok {
		return false
	}
	if oldPath == newPath {
		return false
	}

	rebased := make([]string, 0, len(c.Folders))
	for f := range c.Folders {
		if vpath.IsDescendant(f, oldPath) {
			rebased = append(rebased, f)
		}
	}
	for _, f := range rebased {
		delete(c.Folders, f)
		c.Folders[vpath.Rebase(f, oldPath, newPath)] = struct{}{}
	}
	for _, a := range c.Artifacts {
		if vpath.IsDescendant(a.Name, oldPath) {
			a.Name = vpath.Rebase(a.Name, oldPath, newPath)
			a.touch()
		}
	}
	return true
}

// FolderList returns the folder set as a sorted slice, the form the wire
// format and the UI tree both want.
func (c *Collection) FolderList() []string {
	out := make([]string, 0, len(c.Folders))
	for f := range c.Folders {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Names returns all artifact display names in list order.
func (c *Collection) Names() []string {
	out := make([]string, 0, len(c.Artifacts))
	for _, a := range c.Artifacts {
		out = append(out, a.Name)
	}
	return out
}

func (c *Collection) normalizeName(name string) string {
	suffix, ok := kindSuffix[c.Kind]
	if !ok || suffix == "" {
		return name
	}
	if strings.HasSuffix(strings.ToLower(name), suffix) {
		return name
	}
	return name + suffix
}

// clone deep-copies the collection for snapshot-style comparisons in tests
// and for document duplication.
func (c *Collection) clone() *Collection {
	out := NewCollection(c.Kind)
	for _, a := range c.Artifacts {
		cp := *a
		if a.Payload != nil {
			cp.Payload = append(json.RawMessage(nil), a.Payload...)
		}
		out.Artifacts = append(out.Artifacts, &cp)
	}
	for f := range c.Folders {
		out.Folders[f] = struct{}{}
	}
	return out
}
