package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_SetActiveMovesFocus(t *testing.T) {
	var s Selection
	s.SetActive(KindScript, "s1")
	assert.Equal(t, KindScript, s.ActiveKind)

	s.SetActive(KindWeapon, "w1")
	assert.Equal(t, KindWeapon, s.ActiveKind)
	assert.Equal(t, "w1", s.Active(KindWeapon))
	assert.Equal(t, "s1", s.Active(KindScript))

	// Unknown kinds are ignored entirely.
	s.SetActive(Kind("bogus"), "x")
	assert.Equal(t, KindWeapon, s.ActiveKind)
}

func TestSelection_OnArtifactDeleted_ReassignsToFirst(t *testing.T) {
	c := NewCollection(KindWeapon)
	first := c.CreateArtifact("a", nil)
	second := c.CreateArtifact("b", nil)

	var s Selection
	s.SetActive(KindWeapon, second.ID)

	require.True(t, c.DeleteArtifact(second.ID))
	s.OnArtifactDeleted(KindWeapon, second.ID, c)

	assert.Equal(t, first.ID, s.Active(KindWeapon))
	assert.Equal(t, KindWeapon, s.ActiveKind)
}

func TestSelection_OnArtifactDeleted_ClearsAndFallsBack(t *testing.T) {
	c := NewCollection(KindWeapon)
	only := c.CreateArtifact("a", nil)

	var s Selection
	s.SetActive(KindWeapon, only.ID)

	require.True(t, c.DeleteArtifact(only.ID))
	s.OnArtifactDeleted(KindWeapon, only.ID, c)

	assert.Empty(t, s.Active(KindWeapon))
	assert.Equal(t, KindScript, s.ActiveKind)
}

func TestSelection_OnArtifactDeleted_InactiveUntouched(t *testing.T) {
	c := NewCollection(KindWeapon)
	a := c.CreateArtifact("a", nil)
	b := c.CreateArtifact("b", nil)

	var s Selection
	s.SetActive(KindWeapon, a.ID)

	require.True(t, c.DeleteArtifact(b.ID))
	s.OnArtifactDeleted(KindWeapon, b.ID, c)

	assert.Equal(t, a.ID, s.Active(KindWeapon))
}

func TestSelection_Normalize(t *testing.T) {
	doc := New("test", "1.0.0")
	seed := doc.Col(KindScript).First()

	doc.Sel = Selection{
		ActiveScript: "gone",
		ActiveWeapon: "also-gone",
		ActiveKind:   Kind("bogus"),
	}
	doc.Sel.normalize(doc.Collections)

	assert.Equal(t, seed.ID, doc.Sel.ActiveScript)
	assert.Empty(t, doc.Sel.ActiveWeapon)
	assert.Equal(t, KindScript, doc.Sel.ActiveKind)
}
