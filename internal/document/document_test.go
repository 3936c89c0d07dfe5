package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsDefaultScript(t *testing.T) {
	doc := New("fresh", "1.2.3")

	scripts := doc.Col(KindScript)
	require.Equal(t, 1, scripts.Len())
	assert.Equal(t, DefaultScriptName, scripts.First().Name)
	assert.Equal(t, scripts.First().ID, doc.Sel.ActiveScript)
	assert.Equal(t, KindScript, doc.Sel.ActiveKind)
	assert.Equal(t, "1.2.3", doc.Meta.EditorVersion)

	for _, kind := range []Kind{KindWeapon, KindUI, KindLocalization} {
		assert.Equal(t, 0, doc.Col(kind).Len())
	}
}

func TestDocument_Touch(t *testing.T) {
	doc := New("fresh", "1.0.0")
	before := doc.Meta.ModifiedAt
	doc.Touch()
	assert.Greater(t, doc.Meta.ModifiedAt, before)
}

func TestDocument_ArtifactCount(t *testing.T) {
	doc := New("fresh", "1.0.0")
	doc.Col(KindWeapon).CreateArtifact("smg", nil)
	doc.Col(KindLocalization).CreateArtifact("english", nil)
	assert.Equal(t, 3, doc.ArtifactCount())
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	doc := buildDocument(t)
	cp := doc.Clone()
	require.Equal(t, doc, cp)

	cp.Col(KindWeapon).CreateArtifact("weapons/new", nil)
	cp.Col(KindScript).CreateFolder("extra")
	assert.NotEqual(t, doc.Col(KindWeapon).Len(), cp.Col(KindWeapon).Len())
	assert.NotContains(t, doc.Col(KindScript).FolderList(), "extra")
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid())
	}
	assert.False(t, Kind("bogus").Valid())
	assert.False(t, Kind("").Valid())
}
