package document

// DirtyTracker records which artifacts changed since the last successful
// save, plus a flag for structural mutations (create/delete/rename of
// artifacts or folders) that cannot be pinned on a single artifact id.
// It is cleared only together with a successful persistence.
type DirtyTracker struct {
	ids        map[string]struct{}
	structural bool
}

// NewDirtyTracker returns a clean tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{ids: map[string]struct{}{}}
}

// MarkDirty records a content change on one artifact.
func (d *DirtyTracker) MarkDirty(id string) {
	if id == "" {
		return
	}
	d.ids[id] = struct{}{}
}

// MarkStructural records a mutation that touched the shape of a collection.
func (d *DirtyTracker) MarkStructural() {
	d.structural = true
}

// Forget drops ids that no longer exist (e.g. after a cascading folder
// delete). The structural flag keeps the document unsaved regardless.
func (d *DirtyTracker) Forget(ids ...string) {
	for _, id := range ids {
		delete(d.ids, id)
	}
}

// IsDirty reports whether the given artifact has unsaved content changes.
func (d *DirtyTracker) IsDirty(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// Unsaved reports whether the document differs from its last persisted
// state.
func (d *DirtyTracker) Unsaved() bool {
	return d.structural || len(d.ids) > 0
}

// DirtyCount returns the number of artifacts with content changes.
func (d *DirtyTracker) DirtyCount() int { return len(d.ids) }

// MarkAllClean resets everything after a successful save.
func (d *DirtyTracker) MarkAllClean() {
	d.ids = map[string]struct{}{}
	d.structural = false
}
